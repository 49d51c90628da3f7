package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecret string

func (s staticSecret) PostbackSecret(context.Context) (string, error) {
	return string(s), nil
}

func TestSignVerify(t *testing.T) {
	s := NewSigner(staticSecret("topsecret"))
	ctx := context.Background()

	sig, err := s.Sign(ctx, KindRegistration, "click-1")
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	ok, err := s.Verify(ctx, KindRegistration, "click-1", sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamper(t *testing.T) {
	s := NewSigner(staticSecret("topsecret"))
	ctx := context.Background()

	sig, err := s.Sign(ctx, KindDeposit, "click-1")
	require.NoError(t, err)

	ok, err := s.Verify(ctx, KindDeposit, "click-2", sig)
	require.NoError(t, err)
	assert.False(t, ok, "signature must be bound to the click id")

	ok, err = s.Verify(ctx, KindRegistration, "click-1", sig)
	require.NoError(t, err)
	assert.False(t, ok, "a deposit signature must not validate a registration link")

	ok, err = s.Verify(ctx, KindDeposit, "click-1", sig[:len(sig)-1]+"0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignUsesCurrentSecret(t *testing.T) {
	ctx := context.Background()
	a := NewSigner(staticSecret("first"))
	b := NewSigner(staticSecret("second"))

	sigA, err := a.Sign(ctx, KindRegistration, "click-1")
	require.NoError(t, err)

	ok, err := b.Verify(ctx, KindRegistration, "click-1", sigA)
	require.NoError(t, err)
	assert.False(t, ok, "rotating the secret must invalidate old links")
}
