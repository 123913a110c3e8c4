package model

import "time"

// ReasonConfig binds a reason keyword to a mute length in minutes.
type ReasonConfig struct {
	Keyword string `mapstructure:"keyword"`
	Minutes int    `mapstructure:"minutes"`
}

// ModerationConfig holds the moderation settings read from config.yaml / MODBOT_* variables.
type ModerationConfig struct {
	Policy          string         `mapstructure:"policy"`
	AdminRoleName   string         `mapstructure:"admin_role_name"`
	OwnerRoleName   string         `mapstructure:"owner_role_name"`
	MatchMode       string         `mapstructure:"match_mode"`
	DefaultDuration time.Duration  `mapstructure:"default_duration"`
	AuditLookback   int            `mapstructure:"audit_lookback"`
	SweepInterval   time.Duration  `mapstructure:"sweep_interval"`
	Reasons         []ReasonConfig `mapstructure:"reasons"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Config is the process configuration.
type Config struct {
	BotToken     string
	LogChannelID string
	DatabasePath string
	MetricsAddr  string

	Moderation ModerationConfig `mapstructure:"moderation"`
	Log        LogConfig        `mapstructure:"log"`
}
