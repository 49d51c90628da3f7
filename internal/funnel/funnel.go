// Package funnel decides which screen a user should see. There is no stored
// step pointer: the next screen is re-derived on every evaluation from the
// user's monotonic milestone flags and the current gate toggles, so admins
// flipping a gate re-routes everyone immediately.
package funnel

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"funnelbot/internal/storage"
)

// Snapshot freezes the admin-tunable parameters for one evaluation. Each
// setting is read exactly once so a concurrent admin edit cannot produce a
// half-old, half-new decision.
type Snapshot struct {
	SubscriptionGate  bool
	RegistrationGate  bool
	DepositGate       bool
	PlatinumThreshold float64
	FirstDepositMin   float64
	ChannelID         int64
	ChannelURL        string
	PublicBase        string
}

// SettingsSource supplies the live gate and threshold values.
type SettingsSource interface {
	SubscriptionGate(ctx context.Context) (bool, error)
	RegistrationGate(ctx context.Context) (bool, error)
	DepositGate(ctx context.Context) (bool, error)
	PlatinumThreshold(ctx context.Context) (float64, error)
	FirstDepositMin(ctx context.Context) (float64, error)
	ChannelID(ctx context.Context) (int64, error)
	ChannelURL(ctx context.Context) (string, error)
	PublicBase(ctx context.Context) (string, error)
}

// LoadSnapshot reads every tunable once.
func LoadSnapshot(ctx context.Context, s SettingsSource) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.SubscriptionGate, err = s.SubscriptionGate(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.RegistrationGate, err = s.RegistrationGate(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.DepositGate, err = s.DepositGate(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.PlatinumThreshold, err = s.PlatinumThreshold(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.FirstDepositMin, err = s.FirstDepositMin(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.ChannelID, err = s.ChannelID(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.ChannelURL, err = s.ChannelURL(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.PublicBase, err = s.PublicBase(ctx); err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// UserStore is the persistence the evaluator needs.
type UserStore interface {
	ByTelegramID(ctx context.Context, telegramID int64) (*storage.User, error)
	EnsureClickID(ctx context.Context, telegramID int64) (string, error)
	SetSubscribed(ctx context.Context, telegramID int64) error
	SetPlatinum(ctx context.Context, telegramID int64) error
	SetAccessNotified(ctx context.Context, telegramID int64) error
	SetPlatinumNotified(ctx context.Context, telegramID int64) error
}

// ScreenRenderer delivers screens; the evaluator picks which one.
type ScreenRenderer interface {
	Render(ctx context.Context, telegramID int64, name string, markup *tele.ReplyMarkup) error
}

// Membership checks live channel membership. Errors must degrade to false
// inside the implementation.
type Membership interface {
	IsChannelMember(ctx context.Context, channelID, userID int64) bool
}
