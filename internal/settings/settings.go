// Package settings exposes admin-tunable runtime parameters backed by the
// app_config table, with static config values as defaults.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Store is the key-value persistence the service reads and writes.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Config keys recognized by the service.
const (
	KeyPostbackSecret    = "POSTBACK_SECRET"
	KeyChannelID         = "CHANNEL_ID"
	KeyChannelURL        = "CHANNEL_URL"
	KeySupportURL        = "SUPPORT_URL"
	KeyPublicBase        = "PUBLIC_BASE"
	KeyPlatinumThreshold = "PLATINUM_THRESHOLD"
	KeyFirstDepositMin   = "FIRST_DEPOSIT_MIN"
	KeyCheckSubscription = "CHECK_SUBSCRIPTION"
	KeyCheckRegistration = "CHECK_REGISTRATION"
	KeyCheckDeposit      = "CHECK_DEPOSIT"
	KeyBroadcastText     = "BROADCAST_TEXT"
	KeyBroadcastPhoto    = "BROADCAST_PHOTO"
)

// Defaults carries the static fallbacks loaded from the app config file.
type Defaults struct {
	PostbackSecret    string
	ChannelID         int64
	ChannelURL        string
	SupportURL        string
	PublicBase        string
	RefRegA           string
	RefRegB           string
	RefDepA           string
	RefDepB           string
	PlatinumThreshold float64
	FirstDepositMin   float64
}

// Service reads settings from the store, falling back to static defaults.
type Service struct {
	store    Store
	defaults Defaults
}

// New builds the settings service.
func New(store Store, defaults Defaults) *Service {
	return &Service{store: store, defaults: defaults}
}

// Get returns the raw stored value for key, or fallback when absent.
func (s *Service) Get(ctx context.Context, key, fallback string) (string, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok || v == "" {
		return fallback, nil
	}
	return v, nil
}

// Set stores the raw value for key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, key, value)
}

// SetBool stores a boolean flag in canonical form.
func (s *Service) SetBool(ctx context.Context, key string, v bool) error {
	return s.store.Set(ctx, key, strconv.FormatBool(v))
}

// SetFloat stores a numeric setting.
func (s *Service) SetFloat(ctx context.Context, key string, v float64) error {
	return s.store.Set(ctx, key, strconv.FormatFloat(v, 'f', -1, 64))
}

// PostbackSecret returns the shared secret the broker signs postbacks with.
func (s *Service) PostbackSecret(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyPostbackSecret, s.defaults.PostbackSecret)
}

// ChannelID returns the Telegram channel whose membership gates the funnel.
func (s *Service) ChannelID(ctx context.Context) (int64, error) {
	v, err := s.Get(ctx, KeyChannelID, strconv.FormatInt(s.defaults.ChannelID, 10))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", KeyChannelID, err)
	}
	return id, nil
}

// ChannelURL returns the public channel invite link.
func (s *Service) ChannelURL(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyChannelURL, s.defaults.ChannelURL)
}

// SupportURL returns the support contact link.
func (s *Service) SupportURL(ctx context.Context) (string, error) {
	return s.Get(ctx, KeySupportURL, s.defaults.SupportURL)
}

// PublicBase returns the externally reachable base URL of the HTTP surface.
func (s *Service) PublicBase(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyPublicBase, s.defaults.PublicBase)
}

// RefURL returns the broker referral link for an A/B group and link kind
// ("reg" or "dep"). Stored keys look like REF_REG_A.
func (s *Service) RefURL(ctx context.Context, group, kind string) (string, error) {
	group = strings.ToUpper(group)
	if group != "B" {
		group = "A"
	}
	var fallback string
	switch {
	case kind == "reg" && group == "A":
		fallback = s.defaults.RefRegA
	case kind == "reg" && group == "B":
		fallback = s.defaults.RefRegB
	case kind == "dep" && group == "A":
		fallback = s.defaults.RefDepA
	case kind == "dep" && group == "B":
		fallback = s.defaults.RefDepB
	default:
		return "", fmt.Errorf("unknown ref link kind %q", kind)
	}
	key := fmt.Sprintf("REF_%s_%s", strings.ToUpper(kind), group)
	return s.Get(ctx, key, fallback)
}

// PlatinumThreshold returns the cumulative deposit total that grants platinum.
func (s *Service) PlatinumThreshold(ctx context.Context) (float64, error) {
	return s.getFloat(ctx, KeyPlatinumThreshold, s.defaults.PlatinumThreshold)
}

// FirstDepositMin returns the minimum single deposit that counts as first.
func (s *Service) FirstDepositMin(ctx context.Context) (float64, error) {
	return s.getFloat(ctx, KeyFirstDepositMin, s.defaults.FirstDepositMin)
}

// SubscriptionGate reports whether the channel-membership step is enforced.
func (s *Service) SubscriptionGate(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyCheckSubscription, true)
}

// RegistrationGate reports whether the broker-registration step is enforced.
func (s *Service) RegistrationGate(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyCheckRegistration, true)
}

// DepositGate reports whether the first-deposit step is enforced.
func (s *Service) DepositGate(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyCheckDeposit, true)
}

// BroadcastText returns the draft broadcast message text.
func (s *Service) BroadcastText(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyBroadcastText, "")
}

// BroadcastPhoto returns the draft broadcast photo file path, if any.
func (s *Service) BroadcastPhoto(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyBroadcastPhoto, "")
}

func (s *Service) getFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func (s *Service) getBool(ctx context.Context, key string, fallback bool) (bool, error) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || v == "" {
		return fallback, nil
	}
	return ParseBool(v), nil
}

// ParseBool accepts the human spellings admins type into the panel.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
