package screen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/logger"
	"funnelbot/core/telegram/format"
	"funnelbot/internal/storage"
	"funnelbot/internal/texts"
)

// Outgoing is a fully composed screen ready to send.
type Outgoing struct {
	ChatID    int64
	Caption   string
	PhotoPath string
	Markup    *tele.ReplyMarkup
}

// Messenger delivers composed screens. Send returns the new message ID.
type Messenger interface {
	Send(ctx context.Context, out Outgoing) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// UserSource supplies and updates the per-user render state.
type UserSource interface {
	ByTelegramID(ctx context.Context, telegramID int64) (*storage.User, error)
	SetLastMessageID(ctx context.Context, telegramID int64, messageID int) error
}

// OverrideSource returns admin content edits, nil when a screen has none.
type OverrideSource interface {
	Get(ctx context.Context, lang, screen string) (*storage.Override, error)
}

// Renderer composes and delivers screens, keeping one live message per chat.
type Renderer struct {
	users     UserSource
	overrides OverrideSource
	messenger Messenger
	assetsDir string
}

// NewRenderer builds a renderer. assetsDir holds per-language screen photos
// laid out as {lang}/{screen}.jpg.
func NewRenderer(users UserSource, overrides OverrideSource, messenger Messenger, assetsDir string) *Renderer {
	return &Renderer{users: users, overrides: overrides, messenger: messenger, assetsDir: assetsDir}
}

// Render sends the named screen to the user, replacing any previous funnel
// message. User state is re-read so the message reflects the latest flags.
func (r *Renderer) Render(ctx context.Context, telegramID int64, name string, markup *tele.ReplyMarkup) error {
	u, err := r.users.ByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	// Best effort: the old message may already be gone or too old to delete.
	if u.LastBotMessageID.Valid {
		if err := r.messenger.Delete(ctx, telegramID, int(u.LastBotMessageID.Int64)); err != nil {
			logger.Screen.Debug("previous message delete failed",
				slog.String("event", "screen.delete"),
				slog.Int64("user_id", telegramID),
				slog.String("err", err.Error()),
			)
		}
	}

	lang := u.Lang()
	if lang == "" {
		lang = texts.FallbackLanguage
	}

	title, body, err := r.Resolve(ctx, lang, name)
	if err != nil {
		return err
	}

	out := Outgoing{
		ChatID:    telegramID,
		Caption:   format.Caption(title, body),
		PhotoPath: r.photoPath(lang, name),
		Markup:    markup,
	}
	messageID, err := r.messenger.Send(ctx, out)
	if err != nil {
		return fmt.Errorf("send screen %s: %w", name, err)
	}

	if err := r.users.SetLastMessageID(ctx, telegramID, messageID); err != nil {
		return fmt.Errorf("remember message id: %w", err)
	}

	logger.Screen.Info("screen rendered",
		slog.String("event", "screen.render"),
		slog.Int64("user_id", telegramID),
		slog.String("screen", name),
		slog.String("lang", lang),
	)
	return nil
}

// Resolve returns the effective title and body for a screen: the built-in
// translation with stored overrides layered on top, field by field.
func (r *Renderer) Resolve(ctx context.Context, lang, name string) (title, body string, err error) {
	keys, ok := textKeys[name]
	if !ok {
		return "", "", fmt.Errorf("unknown screen %q", name)
	}
	title = texts.T(lang, keys[0])
	if keys[1] != "" {
		body = texts.T(lang, keys[1])
	}

	o, err := r.overrides.Get(ctx, lang, name)
	if err != nil {
		return "", "", err
	}
	if o != nil {
		if v := format.DerefString(o.Title, ""); v != "" {
			title = v
		}
		if v := format.DerefString(o.Body, ""); v != "" {
			body = v
		}
	}
	return title, body, nil
}

// photoPath returns the screen photo for the language, or empty when the
// asset does not exist. Non-Russian languages share the English art.
func (r *Renderer) photoPath(lang, name string) string {
	dir := "en"
	if lang == "ru" {
		dir = "ru"
	}
	p := filepath.Join(r.assetsDir, dir, name+".jpg")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
