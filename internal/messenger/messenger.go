// Package messenger adapts the Telegram bot API for the funnel: screen
// delivery, channel membership checks, and delivery-result classification
// for best-effort sends.
package messenger

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/logger"
	"funnelbot/internal/screen"
)

// Bot wraps the telebot instance behind the narrow interfaces the funnel uses.
type Bot struct {
	bot *tele.Bot
}

// New wraps a running telebot instance.
func New(bot *tele.Bot) *Bot {
	return &Bot{bot: bot}
}

// Send delivers a composed screen as a photo with caption when art exists,
// plain text otherwise. Returns the new message ID.
func (b *Bot) Send(ctx context.Context, out screen.Outgoing) (int, error) {
	recipient := tele.ChatID(out.ChatID)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: out.Markup}

	var (
		msg *tele.Message
		err error
	)
	if out.PhotoPath != "" {
		photo := &tele.Photo{File: tele.FromDisk(out.PhotoPath), Caption: out.Caption}
		msg, err = b.bot.Send(recipient, photo, opts)
	} else {
		msg, err = b.bot.Send(recipient, out.Caption, opts)
	}
	if err != nil {
		return 0, fmt.Errorf("send to %d: %w", out.ChatID, err)
	}
	return msg.ID, nil
}

// Delete removes a previously sent message.
func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	return b.bot.Delete(&tele.StoredMessage{
		ChatID:    chatID,
		MessageID: fmt.Sprintf("%d", messageID),
	})
}

// IsChannelMember reports whether the user currently belongs to the channel.
// API errors degrade to false: an unreachable Telegram must not unlock the
// subscription gate.
func (b *Bot) IsChannelMember(ctx context.Context, channelID, userID int64) bool {
	member, err := b.bot.ChatMemberOf(tele.ChatID(channelID), &tele.User{ID: userID})
	if err != nil {
		logger.TG.Warn("membership check failed",
			slog.String("event", "tg.member_of"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	switch member.Role {
	case tele.Member, tele.Administrator, tele.Creator:
		return true
	}
	return false
}
