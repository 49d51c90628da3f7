package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[string]string

func (m memStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memStore) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on", " On "} {
		assert.True(t, ParseBool(v), "%q", v)
	}
	for _, v := range []string{"0", "false", "no", "off", "", "maybe"} {
		assert.False(t, ParseBool(v), "%q", v)
	}
}

func TestGatesDefaultEnabled(t *testing.T) {
	svc := New(memStore{}, Defaults{})
	ctx := context.Background()

	for _, fn := range []func(context.Context) (bool, error){
		svc.SubscriptionGate, svc.RegistrationGate, svc.DepositGate,
	} {
		on, err := fn(ctx)
		require.NoError(t, err)
		assert.True(t, on)
	}
}

func TestStoredValueWinsOverDefault(t *testing.T) {
	store := memStore{}
	svc := New(store, Defaults{PostbackSecret: "fallback", PlatinumThreshold: 500})
	ctx := context.Background()

	secret, err := svc.PostbackSecret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fallback", secret)

	require.NoError(t, svc.Set(ctx, KeyPostbackSecret, "rotated"))
	secret, err = svc.PostbackSecret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rotated", secret)

	threshold, err := svc.PlatinumThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, threshold)

	require.NoError(t, svc.SetFloat(ctx, KeyPlatinumThreshold, 750))
	threshold, err = svc.PlatinumThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 750.0, threshold)
}

func TestRefURLGroupAndKind(t *testing.T) {
	store := memStore{}
	svc := New(store, Defaults{
		RefRegA: "https://broker/reg-a",
		RefRegB: "https://broker/reg-b",
		RefDepA: "https://broker/dep-a",
		RefDepB: "https://broker/dep-b",
	})
	ctx := context.Background()

	for _, tc := range []struct {
		group, kind, want string
	}{
		{"A", "reg", "https://broker/reg-a"},
		{"B", "reg", "https://broker/reg-b"},
		{"A", "dep", "https://broker/dep-a"},
		{"B", "dep", "https://broker/dep-b"},
		// unknown groups collapse to A
		{"x", "reg", "https://broker/reg-a"},
	} {
		got, err := svc.RefURL(ctx, tc.group, tc.kind)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s/%s", tc.group, tc.kind)
	}

	// stored value overrides the config default
	require.NoError(t, svc.Set(ctx, "REF_REG_B", "https://broker/reg-b2"))
	got, err := svc.RefURL(ctx, "b", "reg")
	require.NoError(t, err)
	assert.Equal(t, "https://broker/reg-b2", got)

	_, err = svc.RefURL(ctx, "A", "bogus")
	assert.Error(t, err)
}

func TestChannelIDParsing(t *testing.T) {
	store := memStore{KeyChannelID: " -1001234567890 "}
	svc := New(store, Defaults{ChannelID: 42})
	ctx := context.Background()

	id, err := svc.ChannelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)

	store[KeyChannelID] = "not-a-number"
	_, err = svc.ChannelID(ctx)
	assert.Error(t, err)
}
