package postback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnelbot/internal/funnel"
	"funnelbot/internal/settings"
	"funnelbot/internal/storage"
	"funnelbot/internal/token"
)

const testSecret = "pbsecret"

type fakeUsers struct {
	user *storage.User
}

func (f *fakeUsers) ByClickID(_ context.Context, clickID string) (*storage.User, error) {
	if f.user == nil || !f.user.ClickID.Valid || f.user.ClickID.String != clickID {
		return nil, storage.ErrUserNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsers) ByTelegramID(_ context.Context, id int64) (*storage.User, error) {
	if f.user == nil || f.user.TelegramID != id {
		return nil, storage.ErrUserNotFound
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsers) ApplyPostback(_ context.Context, clickID string, upd storage.PostbackUpdate) (*storage.User, error) {
	if f.user == nil || !f.user.ClickID.Valid || f.user.ClickID.String != clickID {
		return nil, storage.ErrUserNotFound
	}
	u := f.user
	if upd.TraderID != "" && !u.TraderID.Valid {
		u.TraderID = sql.NullString{String: upd.TraderID, Valid: true}
	}
	if upd.Registered {
		u.IsRegistered = true
	}
	if upd.DepositEvent {
		if upd.Amount > 0 {
			u.TotalDeposits += upd.Amount
		}
		if !u.HasDeposit && upd.Amount >= upd.MinFirstDep {
			u.HasDeposit = true
		}
	}
	cp := *u
	return &cp, nil
}

type fakePusher struct {
	evaluated int
	platinum  int
}

func (f *fakePusher) EvaluateWith(context.Context, int64, funnel.Snapshot) (string, error) {
	f.evaluated++
	return "", nil
}

func (f *fakePusher) NotifyPlatinum(context.Context, int64, funnel.Snapshot) error {
	f.platinum++
	return nil
}

func testUser() *storage.User {
	return &storage.User{
		ID:         1,
		TelegramID: 100,
		GroupAB:    "A",
		Language:   sql.NullString{String: "en", Valid: true},
		ClickID:    sql.NullString{String: "click-1", Valid: true},
	}
}

func newTestServer(t *testing.T, users *fakeUsers) (*httptest.Server, *fakePusher, *token.Signer) {
	return newTestServerMin(t, users, 10)
}

func newTestServerMin(t *testing.T, users *fakeUsers, firstDepMin float64) (*httptest.Server, *fakePusher, *token.Signer) {
	t.Helper()
	svc := settings.New(memStore{}, settings.Defaults{
		PostbackSecret:    testSecret,
		ChannelID:         -100,
		PublicBase:        "https://bot.example.com",
		RefRegA:           "https://broker/reg-a",
		RefRegB:           "https://broker/reg-b",
		RefDepA:           "https://broker/dep-a",
		RefDepB:           "https://broker/dep-b",
		PlatinumThreshold: 500,
		FirstDepositMin:   firstDepMin,
	})
	signer := token.NewSigner(svc)
	pusher := &fakePusher{}
	srv := httptest.NewServer(newRouter(NewHandler(users, svc, signer, pusher)))
	t.Cleanup(srv.Close)
	return srv, pusher, signer
}

type memStore map[string]string

func (m memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memStore) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestPostbackRejectsBadSecret(t *testing.T) {
	srv, pusher, _ := newTestServer(t, &fakeUsers{user: testUser()})

	code, body := getJSON(t, srv.URL+"/pb?t=wrong&click_id=click-1&event=reg")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["ok"])
	assert.Zero(t, pusher.evaluated)
}

func TestPostbackRequiresClickID(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUsers{user: testUser()})

	code, _ := getJSON(t, srv.URL+"/pb?t="+testSecret+"&event=reg")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostbackUnknownClickID(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUsers{user: testUser()})

	code, _ := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=nope&event=reg")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPostbackRegistration(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, pusher, _ := newTestServer(t, users)

	code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=reg&trader_id=tr-9")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["is_registered"])
	assert.True(t, users.user.IsRegistered)
	assert.Equal(t, "tr-9", users.user.TraderID.String)
	assert.Equal(t, 1, pusher.evaluated)
	assert.Equal(t, 1, pusher.platinum)
}

// A deposit split below the minimum accumulates the total but does not open
// access: the first-deposit check looks at the incoming amount alone.
func TestPostbackSplitDepositBelowMinimum(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, _, _ := newTestServer(t, users)

	for i := 0; i < 3; i++ {
		code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=dep&sumdep=5")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, body["has_deposit"])
	}
	assert.Equal(t, 15.0, users.user.TotalDeposits)
	assert.False(t, users.user.HasDeposit)

	code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=dep&sumdep=10")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["has_deposit"])
}

// Brokers report the deposit amount as sumdep; a qualifying first deposit
// must flip has_deposit and accumulate the total in one call.
func TestPostbackQualifyingDeposit(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, _, _ := newTestServer(t, users)

	code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=dep_first&sumdep=15")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["has_deposit"])
	assert.Equal(t, 15.0, body["total_deposits"])
	assert.True(t, users.user.HasDeposit)
	assert.Equal(t, 15.0, users.user.TotalDeposits)
}

// With the minimum at zero, a bare deposit event with no sumdep already
// clears the first-deposit milestone.
func TestPostbackZeroMinimumDeposit(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, _, _ := newTestServerMin(t, users, 0)

	code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=dep")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["has_deposit"])
	assert.Equal(t, 0.0, users.user.TotalDeposits)
}

func TestPostbackDepositInferredFromAmount(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, _, _ := newTestServer(t, users)

	// no recognizable event name, but a positive amount still counts
	code, body := getJSON(t, srv.URL+"/pb?t="+testSecret+"&click_id=click-1&event=ftd&sumdep=25")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["has_deposit"])
	assert.Equal(t, 25.0, users.user.TotalDeposits)
}

func TestRedirectFollowsGroupLink(t *testing.T) {
	users := &fakeUsers{user: testUser()}
	srv, _, signer := newTestServer(t, users)

	sig, err := signer.Sign(context.Background(), "reg", "click-1")
	require.NoError(t, err)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(fmt.Sprintf("%s/go/reg?click_id=click-1&sig=%s", srv.URL, sig))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://broker/reg-a?click_id=click-1", resp.Header.Get("Location"))
}

func TestRedirectGroupB(t *testing.T) {
	u := testUser()
	u.GroupAB = "B"
	srv, _, signer := newTestServer(t, &fakeUsers{user: u})

	sig, err := signer.Sign(context.Background(), "dep", "click-1")
	require.NoError(t, err)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(fmt.Sprintf("%s/d/click-1/%s", srv.URL, sig))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://broker/dep-b?click_id=click-1", resp.Header.Get("Location"))
}

func TestRedirectRejectsTamperedSignature(t *testing.T) {
	srv, _, signer := newTestServer(t, &fakeUsers{user: testUser()})

	sig, err := signer.Sign(context.Background(), "reg", "click-1")
	require.NoError(t, err)

	// deposit link signed as registration
	code, _ := getJSON(t, fmt.Sprintf("%s/go/dep?click_id=click-1&sig=%s", srv.URL, sig))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = getJSON(t, srv.URL+"/go/reg?click_id=click-1&sig=deadbeef")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRedirectUnknownKind(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUsers{user: testUser()})
	code, _ := getJSON(t, srv.URL+"/go/bogus?click_id=click-1&sig=x")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUsers{user: testUser()})
	code, body := getJSON(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])
}
