// Package token signs and verifies referral redirect URLs so the broker's
// postback secret also authenticates outbound click links.
package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Link kinds embedded in the signature payload. A registration link's
// signature never validates for a deposit redirect and vice versa.
const (
	KindRegistration = "reg"
	KindDeposit      = "dep"
)

// SecretSource supplies the current shared secret. Reading it on every
// operation keeps admin secret rotation effective without a restart.
type SecretSource interface {
	PostbackSecret(ctx context.Context) (string, error)
}

// Signer produces and checks HMAC-SHA256 signatures over "{kind}:{clickID}".
type Signer struct {
	secrets SecretSource
}

// NewSigner builds a signer over the given secret source.
func NewSigner(secrets SecretSource) *Signer {
	return &Signer{secrets: secrets}
}

// Sign returns the lowercase hex HMAC for a link kind and click ID.
func (s *Signer) Sign(ctx context.Context, kind, clickID string) (string, error) {
	secret, err := s.secrets.PostbackSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("load secret: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s", kind, clickID)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether sig is the valid signature for (kind, clickID).
// Comparison is constant-time.
func (s *Signer) Verify(ctx context.Context, kind, clickID, sig string) (bool, error) {
	want, err := s.Sign(ctx, kind, clickID)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(want), []byte(sig)), nil
}
