package admin

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/logger"
	"funnelbot/core/telegram/callbacks"
	"funnelbot/core/telegram/format"
	tghelpers "funnelbot/core/telegram/helpers"
	"funnelbot/core/telegram/keyboard"
	"funnelbot/internal/messenger"
	"funnelbot/internal/settings"
	"funnelbot/internal/storage"
)

var segments = []struct {
	Key   string
	Label string
}{
	{storage.SegmentAll, "Everyone"},
	{storage.SegmentRegistered, "Registered"},
	{storage.SegmentDeposited, "Deposited"},
	{storage.SegmentStarted, "Started, not registered"},
}

// segmentKey is where an admin's chosen broadcast segment persists, so the
// draft survives restarts.
func segmentKey(adminID int64) string {
	return fmt.Sprintf("BROADCAST_SEGMENT_%d", adminID)
}

func (p *Panel) currentSegment(c tele.Context) (string, error) {
	ctx := tghelpers.BuildContext(c)
	seg, err := p.settings.Get(ctx, segmentKey(c.Sender().ID), storage.SegmentAll)
	if err != nil {
		return "", err
	}
	return seg, nil
}

// cbBcast shows the broadcast composer: segment, draft text, draft photo.
func (p *Panel) cbBcast(c tele.Context) error {
	_ = c.Respond()
	return p.sendBcast(c)
}

func (p *Panel) sendBcast(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	seg, err := p.currentSegment(c)
	if err != nil {
		return err
	}
	text, err := p.settings.BroadcastText(ctx)
	if err != nil {
		return err
	}
	photo, err := p.settings.BroadcastPhoto(ctx)
	if err != nil {
		return err
	}

	preview := "-"
	if text != "" {
		preview = text
		if len(preview) > 200 {
			preview = preview[:200] + "…"
		}
	}
	hasPhoto := "no"
	if photo != "" {
		hasPhoto = "yes"
	}

	var segRows [][]keyboard.InlineBtn
	for _, s := range segments {
		label := s.Label
		if s.Key == seg {
			label = "✅ " + label
		}
		segRows = append(segRows, []keyboard.InlineBtn{{
			Text: label, Unique: cbBcastSeg, Data: s.Key,
		}})
	}
	segRows = append(segRows,
		[]keyboard.InlineBtn{
			{Text: "✏️ Text", Unique: cbBcastText},
			{Text: "🖼 Photo", Unique: cbBcastPhoto},
		},
		[]keyboard.InlineBtn{{Text: "🚀 Send", Unique: cbBcastGo}},
		[]keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}},
	)

	body := fmt.Sprintf("%s\n\nsegment: %s\nphoto: %s\n\n%s",
		format.Bold("Broadcast"), seg, hasPhoto, format.EscapeHTML(preview))
	return tghelpers.SendHTML(c, body, keyboard.InlineButtonsRows(segRows...))
}

func (p *Panel) cbBcastSeg(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	seg := callbacks.CallbackPayload(c)
	valid := false
	for _, s := range segments {
		if s.Key == seg {
			valid = true
			break
		}
	}
	if !valid {
		return c.Respond(&tele.CallbackResponse{Text: "Bad segment"})
	}
	if err := p.settings.Set(ctx, segmentKey(c.Sender().ID), seg); err != nil {
		return err
	}
	_ = c.Respond()
	return p.sendBcast(c)
}

func (p *Panel) cbBcastText(c tele.Context) error {
	_ = c.Respond()
	p.fsm.SetState(c.Sender().ID, stateBcastText)
	return tghelpers.SendHTML(c, "Send the broadcast text:", backMarkup())
}

func (p *Panel) fsmBcastText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := p.settings.Set(ctx, settings.KeyBroadcastText, strings.TrimSpace(c.Text())); err != nil {
		return err
	}
	p.fsm.Clear(c.Sender().ID)
	return p.sendBcast(c)
}

func (p *Panel) cbBcastPhoto(c tele.Context) error {
	_ = c.Respond()
	p.fsm.SetState(c.Sender().ID, stateBcastPhoto)
	return tghelpers.SendHTML(c, "Send the broadcast photo (or the word \"none\" to drop it):", backMarkup())
}

// fsmBcastPhoto stores the photo's Telegram file ID; re-sending by file ID
// avoids re-uploading the image for every recipient.
func (p *Panel) fsmBcastPhoto(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	if strings.EqualFold(strings.TrimSpace(c.Text()), "none") {
		if err := p.settings.Set(ctx, settings.KeyBroadcastPhoto, ""); err != nil {
			return err
		}
		p.fsm.Clear(userID)
		return p.sendBcast(c)
	}

	photo := c.Message().Photo
	if photo == nil {
		return tghelpers.SendHTML(c, "That is not a photo, send an image:", backMarkup())
	}
	if err := p.settings.Set(ctx, settings.KeyBroadcastPhoto, photo.FileID); err != nil {
		return err
	}
	p.fsm.Clear(userID)
	return p.sendBcast(c)
}

// cbBcastGo runs the broadcast over the chosen segment. Sends are paced and
// classified; permanent failures (blocked bot) are counted, not retried.
func (p *Panel) cbBcastGo(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	seg, err := p.currentSegment(c)
	if err != nil {
		return err
	}
	text, err := p.settings.BroadcastText(ctx)
	if err != nil {
		return err
	}
	photoID, err := p.settings.BroadcastPhoto(ctx)
	if err != nil {
		return err
	}
	if text == "" && photoID == "" {
		return c.Respond(&tele.CallbackResponse{Text: "Nothing to send", ShowAlert: true})
	}

	ids, err := p.users.ListSegment(ctx, seg)
	if err != nil {
		return err
	}
	_ = c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Sending to %d users…", len(ids))})

	start := time.Now()
	var sent, failed int
	for _, id := range ids {
		err := p.sendBroadcast(id, text, photoID)
		switch messenger.Classify(err) {
		case messenger.DeliveryOK:
			sent++
		case messenger.DeliveryTransient:
			// one paced retry, then give up on this recipient
			time.Sleep(p.delay * 10)
			if retryErr := p.sendBroadcast(id, text, photoID); retryErr == nil {
				sent++
			} else {
				failed++
			}
		default:
			failed++
		}
		time.Sleep(p.delay)
	}

	logger.Bcast.Info("broadcast finished",
		slog.String("event", "broadcast.done"),
		slog.String("segment", seg),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
		slog.Duration("duration", logger.Took(start)),
	)
	return tghelpers.SendHTML(c, fmt.Sprintf(
		"%s\n\nsegment: %s\nsent: %d\nfailed: %d",
		format.Bold("Broadcast finished"), seg, sent, failed,
	), backMarkup())
}

func (p *Panel) sendBroadcast(chatID int64, text, photoID string) error {
	recipient := tele.ChatID(chatID)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if photoID != "" {
		_, err := p.bot.Send(recipient, &tele.Photo{
			File:    tele.File{FileID: photoID},
			Caption: text,
		}, opts)
		return err
	}
	_, err := p.bot.Send(recipient, text, opts)
	return err
}
