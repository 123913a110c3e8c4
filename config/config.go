package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"discord-moderator/model"
	"discord-moderator/moderation"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultDatabasePath  = "data/moderation.db"
	DefaultSweepInterval = 5 * time.Minute
	envPrefix            = "MODBOT"
)

// Load reads secrets from the environment (and .env) and moderation settings from
// configFile, or config.yaml in . or ./data when configFile is empty.
func Load(configFile string) (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, errors.New("BOT_TOKEN environment variable not set")
	}

	logChannelID := os.Getenv("LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, moderation log channel disabled")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = DefaultDatabasePath
	}

	cfg := &model.Config{
		BotToken:     token,
		LogChannelID: logChannelID,
		DatabasePath: dbPath,
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
	}

	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./data")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("moderation.policy", string(moderation.PolicyRoleOrPermissions))
	v.SetDefault("moderation.admin_role_name", moderation.DefaultAdminRoleName)
	v.SetDefault("moderation.owner_role_name", "")
	v.SetDefault("moderation.match_mode", string(moderation.MatchToken))
	v.SetDefault("moderation.default_duration", moderation.DefaultMuteDuration)
	v.SetDefault("moderation.audit_lookback", moderation.DefaultAuditLookback)
	v.SetDefault("moderation.sweep_interval", DefaultSweepInterval)
	v.SetDefault("moderation.reasons", defaultReasons())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	return v
}

func defaultReasons() []map[string]interface{} {
	rules := moderation.DefaultReasonRules()
	out := make([]map[string]interface{}, 0, len(rules))
	for _, r := range rules {
		out = append(out, map[string]interface{}{
			"keyword": r.Keyword,
			"minutes": int(r.Duration / time.Minute),
		})
	}
	return out
}

// Validate rejects settings the moderation core cannot run with.
func Validate(cfg *model.Config) error {
	m := cfg.Moderation
	if _, err := moderation.ParsePolicy(m.Policy); err != nil {
		return err
	}
	if _, err := moderation.ParseMatchMode(m.MatchMode); err != nil {
		return err
	}
	if m.DefaultDuration <= 0 {
		return fmt.Errorf("moderation.default_duration must be positive, got %s", m.DefaultDuration)
	}
	if m.SweepInterval <= 0 {
		return fmt.Errorf("moderation.sweep_interval must be positive, got %s", m.SweepInterval)
	}
	if m.AuditLookback <= 0 {
		return fmt.Errorf("moderation.audit_lookback must be positive, got %d", m.AuditLookback)
	}
	if moderation.Policy(strings.ToLower(m.Policy)) == moderation.PolicyOwner && m.OwnerRoleName == "" {
		log.Println("Warning: owner policy without moderation.owner_role_name, only the guild owner can moderate")
	}
	for i, r := range m.Reasons {
		if strings.TrimSpace(r.Keyword) == "" {
			return fmt.Errorf("moderation.reasons[%d]: keyword is empty", i)
		}
		if r.Minutes <= 0 {
			return fmt.Errorf("moderation.reasons[%d] (%s): minutes must be positive", i, r.Keyword)
		}
	}
	return nil
}

// ReasonRules converts the configured reason table, preserving its order.
func ReasonRules(m model.ModerationConfig) []moderation.ReasonRule {
	rules := make([]moderation.ReasonRule, 0, len(m.Reasons))
	for _, r := range m.Reasons {
		rules = append(rules, moderation.ReasonRule{
			Keyword:  r.Keyword,
			Duration: time.Duration(r.Minutes) * time.Minute,
		})
	}
	return rules
}
