package postback

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"funnelbot/core/logger"
	"funnelbot/internal/funnel"
	"funnelbot/internal/storage"
	"funnelbot/internal/token"
	"funnelbot/internal/urlutil"
)

// Event names that class as registration and as deposit.
var (
	regEvents = map[string]bool{"reg": true, "registration": true}
	depEvents = map[string]bool{"dep": true, "deposit": true, "dep_first": true, "dep_repeat": true}
)

// UserStore is the persistence the HTTP handlers need.
type UserStore interface {
	ByClickID(ctx context.Context, clickID string) (*storage.User, error)
	ByTelegramID(ctx context.Context, telegramID int64) (*storage.User, error)
	ApplyPostback(ctx context.Context, clickID string, upd storage.PostbackUpdate) (*storage.User, error)
}

// SettingsSource supplies the secret and referral links.
type SettingsSource interface {
	funnel.SettingsSource
	PostbackSecret(ctx context.Context) (string, error)
	RefURL(ctx context.Context, group, kind string) (string, error)
}

// Verifier checks referral link signatures.
type Verifier interface {
	Verify(ctx context.Context, kind, clickID, sig string) (bool, error)
}

// Pusher re-evaluates a user's funnel position after a state change.
type Pusher interface {
	EvaluateWith(ctx context.Context, telegramID int64, snap funnel.Snapshot) (string, error)
	NotifyPlatinum(ctx context.Context, telegramID int64, snap funnel.Snapshot) error
}

// Handler implements the postback and redirect endpoints.
type Handler struct {
	users    UserStore
	settings SettingsSource
	verifier Verifier
	pusher   Pusher
}

// NewHandler wires the HTTP handler set.
func NewHandler(users UserStore, settings SettingsSource, verifier Verifier, pusher Pusher) *Handler {
	return &Handler{users: users, settings: settings, verifier: verifier, pusher: pusher}
}

// Health answers liveness probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "name": "funnelbot"})
}

// Postback ingests a broker event:
//
//	GET /pb?t=<secret>&click_id=<id>&event=<name>&trader_id=<id>&sumdep=<n>
//
// The mutation is atomic; the push to the user is best-effort and never fails
// the request, so the broker does not retry on Telegram hiccups.
func (h *Handler) Postback(c *gin.Context) {
	ctx := c.Request.Context()

	secret, err := h.settings.PostbackSecret(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "settings unavailable"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(c.Query("t")), []byte(secret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "bad secret"})
		return
	}

	clickID := c.Query("click_id")
	if clickID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "click_id required"})
		return
	}

	event := strings.ToLower(c.Query("event"))
	amount, _ := strconv.ParseFloat(c.Query("sumdep"), 64)

	snap, err := funnel.LoadSnapshot(ctx, h.settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "settings unavailable"})
		return
	}

	upd := storage.PostbackUpdate{
		TraderID:     c.Query("trader_id"),
		Registered:   regEvents[event],
		Amount:       amount,
		DepositEvent: depEvents[event] || amount > 0,
		MinFirstDep:  snap.FirstDepositMin,
	}

	u, err := h.users.ApplyPostback(ctx, clickID, upd)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown click_id"})
			return
		}
		logger.PB.Error("postback apply failed",
			slog.String("event", "pb.apply"),
			slog.String("click_id", clickID),
			slog.String("err", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storage failure"})
		return
	}

	logger.PB.Info("postback applied",
		slog.String("event", "pb.apply"),
		slog.String("rid", c.GetString("rid")),
		slog.String("click_id", clickID),
		slog.Int64("user_id", u.TelegramID),
		slog.String("pb_event", event),
		slog.Float64("amount", amount),
		slog.Float64("total_deposits", u.TotalDeposits),
	)

	// Push the user forward. Failures are logged, never surfaced.
	if _, err := h.pusher.EvaluateWith(ctx, u.TelegramID, snap); err != nil {
		logger.PB.Warn("post-postback evaluation failed",
			slog.String("event", "pb.push"),
			slog.Int64("user_id", u.TelegramID),
			slog.String("err", err.Error()),
		)
	}
	if err := h.pusher.NotifyPlatinum(ctx, u.TelegramID, snap); err != nil {
		logger.PB.Warn("platinum notify failed",
			slog.String("event", "pb.platinum"),
			slog.Int64("user_id", u.TelegramID),
			slog.String("err", err.Error()),
		)
	}

	// Echo the state after the push so the broker log shows the outcome.
	fresh, err := h.users.ByTelegramID(ctx, u.TelegramID)
	if err != nil {
		fresh = u
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"event":          event,
		"telegram_id":    fresh.TelegramID,
		"is_registered":  fresh.IsRegistered,
		"has_deposit":    fresh.HasDeposit,
		"total_deposits": fresh.TotalDeposits,
		"is_platinum":    fresh.IsPlatinum,
	})
}

// Redirect handles GET /go/:kind?click_id=<id>&sig=<hmac>: verify, pick the
// A/B broker link, append the click ID, and 307 to the broker.
func (h *Handler) Redirect(c *gin.Context) {
	kind := c.Param("kind")
	h.redirect(c, kind, c.Query("click_id"), c.Query("sig"))
}

// ShortRedirect handles the path-style variants /r/:click_id/:sig and
// /d/:click_id/:sig.
func (h *Handler) ShortRedirect(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.redirect(c, kind, c.Param("click_id"), c.Param("sig"))
	}
}

func (h *Handler) redirect(c *gin.Context, kind, clickID, sig string) {
	ctx := c.Request.Context()

	if kind != token.KindRegistration && kind != token.KindDeposit {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown link kind"})
		return
	}
	ok, err := h.verifier.Verify(ctx, kind, clickID, sig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "settings unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "bad signature"})
		return
	}

	u, err := h.users.ByClickID(ctx, clickID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown click_id"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "storage failure"})
		return
	}

	base, err := h.settings.RefURL(ctx, u.GroupAB, kind)
	if err != nil || base == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "link not configured"})
		return
	}
	target, err := urlutil.WithParams(base, map[string]string{"click_id": clickID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "link not configured"})
		return
	}

	logger.PB.Info("redirect",
		slog.String("event", "pb.redirect"),
		slog.String("rid", c.GetString("rid")),
		slog.String("click_id", clickID),
		slog.String("gate", kind),
		slog.String("group", u.GroupAB),
	)
	c.Redirect(http.StatusTemporaryRedirect, target)
}
