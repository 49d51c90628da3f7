// Package urlutil has small helpers for composing outbound links.
package urlutil

import (
	"fmt"
	"net/url"
)

// WithParams returns base with the given query parameters merged in,
// overwriting any existing values for the same keys.
func WithParams(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", base, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
