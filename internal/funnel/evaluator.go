package funnel

import (
	"context"
	"fmt"
	"log/slog"

	"funnelbot/core/logger"
	"funnelbot/internal/screen"
	"funnelbot/internal/token"
	"funnelbot/internal/urlutil"
)

// LinkSigner signs broker redirect links.
type LinkSigner interface {
	Sign(ctx context.Context, kind, clickID string) (string, error)
}

// MiniApps carries the mini-app and support URLs the evaluator's keyboards use.
type MiniApps struct {
	Standard string
	VIP      string
	Support  string
}

// Evaluator walks a user through the funnel.
type Evaluator struct {
	users    UserStore
	screens  ScreenRenderer
	member   Membership
	settings SettingsSource
	signer   LinkSigner
	apps     MiniApps
}

// NewEvaluator wires an evaluator.
func NewEvaluator(users UserStore, screens ScreenRenderer, member Membership, settings SettingsSource, signer LinkSigner, apps MiniApps) *Evaluator {
	return &Evaluator{users: users, screens: screens, member: member, settings: settings, signer: signer, apps: apps}
}

// Evaluate loads a fresh settings snapshot and renders the user's next screen.
func (e *Evaluator) Evaluate(ctx context.Context, telegramID int64) (string, error) {
	snap, err := LoadSnapshot(ctx, e.settings)
	if err != nil {
		return "", err
	}
	return e.EvaluateWith(ctx, telegramID, snap)
}

// EvaluateWith renders the user's next screen against a prepared snapshot.
// Gate order is subscription, registration, deposit; a disabled gate is
// skipped entirely. Returns the screen that was rendered, or an empty name
// when the user already has access and nothing needs sending.
func (e *Evaluator) EvaluateWith(ctx context.Context, telegramID int64, snap Snapshot) (string, error) {
	u, err := e.users.ByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}

	if u.Lang() == "" {
		if err := e.screens.Render(ctx, telegramID, screen.Langs, screen.LangPicker()); err != nil {
			return "", err
		}
		return screen.Langs, nil
	}
	lang := u.Lang()

	// Membership is re-checked on every evaluation, gate or no gate, so the
	// subscribed flag stays honest for stats and segments.
	if !u.IsSubscribed && e.member.IsChannelMember(ctx, snap.ChannelID, telegramID) {
		if err := e.users.SetSubscribed(ctx, telegramID); err != nil {
			return "", err
		}
		u.IsSubscribed = true
	}

	if snap.SubscriptionGate && !u.IsSubscribed {
		err := e.screens.Render(ctx, telegramID, screen.Subscribe, screen.SubscribeKB(lang, snap.ChannelURL))
		if err != nil {
			return "", err
		}
		return screen.Subscribe, nil
	}

	if snap.RegistrationGate && !u.IsRegistered {
		url, err := e.SignedLink(ctx, telegramID, token.KindRegistration, snap.PublicBase)
		if err != nil {
			return "", err
		}
		if err := e.screens.Render(ctx, telegramID, screen.Register, screen.RegisterKB(lang, url)); err != nil {
			return "", err
		}
		return screen.Register, nil
	}

	if snap.DepositGate && !u.HasDeposit {
		url, err := e.SignedLink(ctx, telegramID, token.KindDeposit, snap.PublicBase)
		if err != nil {
			return "", err
		}
		if err := e.screens.Render(ctx, telegramID, screen.Deposit, screen.DepositKB(lang, url)); err != nil {
			return "", err
		}
		return screen.Deposit, nil
	}

	// All enforced gates passed.
	if !u.IsPlatinum && u.TotalDeposits >= snap.PlatinumThreshold && snap.PlatinumThreshold > 0 {
		if err := e.users.SetPlatinum(ctx, telegramID); err != nil {
			return "", err
		}
		u.IsPlatinum = true
	}

	// Access is announced once. After that the evaluator goes quiet: repeat
	// postbacks must not tear down whatever screen the user is looking at.
	if u.AccessNotified {
		return "", nil
	}

	if err := e.users.SetAccessNotified(ctx, telegramID); err != nil {
		return "", err
	}
	links := screen.MenuLinks{Support: e.apps.Support, MiniApp: e.apps.Standard, VIPMiniApp: e.apps.VIP}
	if err := e.screens.Render(ctx, telegramID, screen.Access, screen.AccessKB(lang, u.IsPlatinum, links)); err != nil {
		return "", err
	}
	logger.Funnel.Info("access granted",
		slog.String("event", "funnel.access"),
		slog.Int64("user_id", telegramID),
	)
	return screen.Access, nil
}

// NotifyPlatinum promotes the user to platinum when the threshold is reached
// and shows the one-time congratulation. The notified flag is set only after
// a successful render so a failed send is retried on the next deposit.
func (e *Evaluator) NotifyPlatinum(ctx context.Context, telegramID int64, snap Snapshot) error {
	u, err := e.users.ByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if snap.PlatinumThreshold <= 0 || u.TotalDeposits < snap.PlatinumThreshold {
		return nil
	}
	if !u.IsPlatinum {
		if err := e.users.SetPlatinum(ctx, telegramID); err != nil {
			return err
		}
		u.IsPlatinum = true
	}
	if u.PlatinumNotified {
		return nil
	}

	lang := u.Lang()
	links := screen.MenuLinks{Support: e.apps.Support, MiniApp: e.apps.Standard, VIPMiniApp: e.apps.VIP}
	if err := e.screens.Render(ctx, telegramID, screen.Platinum, screen.AccessKB(lang, true, links)); err != nil {
		return err
	}
	if err := e.users.SetPlatinumNotified(ctx, telegramID); err != nil {
		return err
	}
	logger.Funnel.Info("platinum reached",
		slog.String("event", "funnel.platinum"),
		slog.Int64("user_id", telegramID),
		slog.Float64("total_deposits", u.TotalDeposits),
		slog.Float64("threshold", snap.PlatinumThreshold),
	)
	return nil
}

// SignedLink builds the signed redirect URL for a broker link kind, assigning
// the user a click ID on first use.
func (e *Evaluator) SignedLink(ctx context.Context, telegramID int64, kind, publicBase string) (string, error) {
	clickID, err := e.users.EnsureClickID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	sig, err := e.signer.Sign(ctx, kind, clickID)
	if err != nil {
		return "", err
	}
	return urlutil.WithParams(fmt.Sprintf("%s/go/%s", publicBase, kind), map[string]string{
		"click_id": clickID,
		"sig":      sig,
	})
}
