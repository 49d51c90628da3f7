package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "funnelbot/core/config"
	coredatabase "funnelbot/core/database"
)

// HTTPConfig configures the postback and redirect server.
type HTTPConfig struct {
	Listen     string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	PublicBase string `yaml:"public_base" envconfig:"PUBLIC_BASE"`
}

// FunnelConfig holds the funnel's static defaults. Most of them can be
// overridden at runtime from the admin panel.
type FunnelConfig struct {
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`

	ChannelID  int64  `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	ChannelURL string `yaml:"channel_url" envconfig:"CHANNEL_URL"`
	SupportURL string `yaml:"support_url" envconfig:"SUPPORT_URL"`

	MiniAppURL    string `yaml:"miniapp_url" envconfig:"MINIAPP_URL"`
	VIPMiniAppURL string `yaml:"vip_miniapp_url" envconfig:"VIP_MINIAPP_URL"`

	RefRegA string `yaml:"ref_reg_a" envconfig:"REF_REG_A"`
	RefRegB string `yaml:"ref_reg_b" envconfig:"REF_REG_B"`
	RefDepA string `yaml:"ref_dep_a" envconfig:"REF_DEP_A"`
	RefDepB string `yaml:"ref_dep_b" envconfig:"REF_DEP_B"`

	PostbackSecret    string  `yaml:"postback_secret" envconfig:"POSTBACK_SECRET"`
	FirstDepositMin   float64 `yaml:"first_deposit_min" envconfig:"FIRST_DEPOSIT_MIN"`
	PlatinumThreshold float64 `yaml:"platinum_threshold" envconfig:"PLATINUM_THRESHOLD"`

	AssetsDir string `yaml:"assets_dir" envconfig:"ASSETS_DIR"`

	// BroadcastDelayMS paces the broadcast loop between recipients.
	BroadcastDelayMS int `yaml:"broadcast_delay_ms" envconfig:"BROADCAST_DELAY_MS"`
}

// Config aggregates core bot settings with the funnel application's own.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	HTTP     HTTPConfig          `yaml:"http"`
	Funnel   FunnelConfig        `yaml:"funnel"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML config and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if len(cfg.Funnel.AdminIDs) == 0 && cfg.Core.Telegram.AdminID != 0 {
		cfg.Funnel.AdminIDs = []int64{cfg.Core.Telegram.AdminID}
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = ":8080"
	}
	if cfg.Funnel.PostbackSecret == "" {
		return fmt.Errorf("funnel.postback_secret is required")
	}
	if cfg.Funnel.FirstDepositMin <= 0 {
		cfg.Funnel.FirstDepositMin = 10
	}
	if cfg.Funnel.PlatinumThreshold <= 0 {
		cfg.Funnel.PlatinumThreshold = 500
	}
	if cfg.Funnel.AssetsDir == "" {
		cfg.Funnel.AssetsDir = "assets"
	}
	if cfg.Funnel.BroadcastDelayMS <= 0 {
		cfg.Funnel.BroadcastDelayMS = 50
	}
	return nil
}
