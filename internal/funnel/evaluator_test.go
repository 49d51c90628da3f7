package funnel

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"funnelbot/internal/screen"
	"funnelbot/internal/storage"
)

type fakeUsers struct {
	user *storage.User
}

func (f *fakeUsers) ByTelegramID(_ context.Context, id int64) (*storage.User, error) {
	if f.user == nil || f.user.TelegramID != id {
		return nil, storage.ErrUserNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsers) EnsureClickID(_ context.Context, _ int64) (string, error) {
	if !f.user.ClickID.Valid {
		f.user.ClickID = sql.NullString{String: "click-test", Valid: true}
	}
	return f.user.ClickID.String, nil
}

func (f *fakeUsers) SetSubscribed(_ context.Context, _ int64) error {
	f.user.IsSubscribed = true
	return nil
}

func (f *fakeUsers) SetPlatinum(_ context.Context, _ int64) error {
	f.user.IsPlatinum = true
	return nil
}

func (f *fakeUsers) SetAccessNotified(_ context.Context, _ int64) error {
	f.user.AccessNotified = true
	return nil
}

func (f *fakeUsers) SetPlatinumNotified(_ context.Context, _ int64) error {
	f.user.PlatinumNotified = true
	return nil
}

type fakeRenderer struct {
	rendered []string
	fail     bool
}

func (f *fakeRenderer) Render(_ context.Context, _ int64, name string, _ *tele.ReplyMarkup) error {
	if f.fail {
		return assert.AnError
	}
	f.rendered = append(f.rendered, name)
	return nil
}

type fakeMember bool

func (f fakeMember) IsChannelMember(context.Context, int64, int64) bool { return bool(f) }

type fakeSigner struct{}

func (fakeSigner) Sign(context.Context, string, string) (string, error) { return "sig", nil }

func lang(code string) sql.NullString {
	return sql.NullString{String: code, Valid: true}
}

func newEval(users *fakeUsers, r *fakeRenderer, member bool) *Evaluator {
	return NewEvaluator(users, r, fakeMember(member), nil, fakeSigner{}, MiniApps{
		Standard: "https://app.example.com",
		VIP:      "https://vip.example.com",
		Support:  "https://t.me/support",
	})
}

func snapAllGates() Snapshot {
	return Snapshot{
		SubscriptionGate:  true,
		RegistrationGate:  true,
		DepositGate:       true,
		PlatinumThreshold: 500,
		FirstDepositMin:   10,
		ChannelID:         -100,
		ChannelURL:        "https://t.me/channel",
		PublicBase:        "https://bot.example.com",
	}
}

func TestEvaluateLanguageFirst(t *testing.T) {
	users := &fakeUsers{user: &storage.User{TelegramID: 1}}
	r := &fakeRenderer{}

	got, err := newEval(users, r, true).EvaluateWith(context.Background(), 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Langs, got)
}

func TestEvaluateGateOrder(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en")}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}
	e := newEval(users, r, false)
	ctx := context.Background()

	got, err := e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Subscribe, got)

	u.IsSubscribed = true
	got, err = e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Register, got)

	u.IsRegistered = true
	got, err = e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Deposit, got)

	u.HasDeposit = true
	got, err = e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Access, got)
}

func TestEvaluatePromotesSubscriptionOnLiveCheck(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en")}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}

	got, err := newEval(users, r, true).EvaluateWith(context.Background(), 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Register, got, "a live member should skip the subscribe screen")
	assert.True(t, u.IsSubscribed)
}

func TestEvaluatePromotesSubscriptionWithGateOff(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en")}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}

	snap := snapAllGates()
	snap.SubscriptionGate = false

	got, err := newEval(users, r, true).EvaluateWith(context.Background(), 1, snap)
	require.NoError(t, err)
	assert.Equal(t, screen.Register, got)
	assert.True(t, u.IsSubscribed, "membership is recorded even when the gate is off")
}

func TestEvaluateDisabledGatesAreSkipped(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en")}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}

	snap := snapAllGates()
	snap.SubscriptionGate = false
	snap.RegistrationGate = false
	snap.DepositGate = false

	got, err := newEval(users, r, false).EvaluateWith(context.Background(), 1, snap)
	require.NoError(t, err)
	assert.Equal(t, screen.Access, got)
}

func TestAccessNotifiedOnlyOnce(t *testing.T) {
	u := &storage.User{
		TelegramID: 1, Language: lang("en"),
		IsSubscribed: true, IsRegistered: true, HasDeposit: true,
	}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}
	e := newEval(users, r, true)
	ctx := context.Background()

	got, err := e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Equal(t, screen.Access, got)
	assert.True(t, u.AccessNotified)

	got, err = e.EvaluateWith(ctx, 1, snapAllGates())
	require.NoError(t, err)
	assert.Empty(t, got, "second pass must not touch the user's current screen")
	assert.Equal(t, []string{screen.Access}, r.rendered)
}

func TestEvaluatePromotesPlatinumAtThreshold(t *testing.T) {
	u := &storage.User{
		TelegramID: 1, Language: lang("en"),
		IsSubscribed: true, IsRegistered: true, HasDeposit: true,
		AccessNotified: true, TotalDeposits: 600,
	}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}

	got, err := newEval(users, r, true).EvaluateWith(context.Background(), 1, snapAllGates())
	require.NoError(t, err)
	assert.Empty(t, got, "promotion alone does not re-send anything")
	assert.True(t, u.IsPlatinum)
	assert.Empty(t, r.rendered)
}

func TestNotifyPlatinumOnce(t *testing.T) {
	u := &storage.User{
		TelegramID: 1, Language: lang("en"),
		TotalDeposits: 600,
	}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}
	e := newEval(users, r, true)
	ctx := context.Background()

	require.NoError(t, e.NotifyPlatinum(ctx, 1, snapAllGates()))
	assert.True(t, u.IsPlatinum)
	assert.True(t, u.PlatinumNotified)
	assert.Equal(t, []string{screen.Platinum}, r.rendered)

	require.NoError(t, e.NotifyPlatinum(ctx, 1, snapAllGates()))
	assert.Equal(t, []string{screen.Platinum}, r.rendered, "no second congratulation")
}

func TestNotifyPlatinumBelowThresholdIsNoop(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en"), TotalDeposits: 100}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{}

	require.NoError(t, newEval(users, r, true).NotifyPlatinum(context.Background(), 1, snapAllGates()))
	assert.False(t, u.IsPlatinum)
	assert.Empty(t, r.rendered)
}

func TestNotifyPlatinumKeepsFlagOnRenderFailure(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en"), TotalDeposits: 600}
	users := &fakeUsers{user: u}
	r := &fakeRenderer{fail: true}

	err := newEval(users, r, true).NotifyPlatinum(context.Background(), 1, snapAllGates())
	require.Error(t, err)
	assert.False(t, u.PlatinumNotified, "a failed send must be retried on the next deposit")
}

func TestSignedLinkShape(t *testing.T) {
	u := &storage.User{TelegramID: 1, Language: lang("en")}
	users := &fakeUsers{user: u}
	e := newEval(users, &fakeRenderer{}, true)

	url, err := e.SignedLink(context.Background(), 1, "reg", "https://bot.example.com")
	require.NoError(t, err)
	assert.Contains(t, url, "https://bot.example.com/go/reg?")
	assert.Contains(t, url, "click_id=click-test")
	assert.Contains(t, url, "sig=sig")
}
