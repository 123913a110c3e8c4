package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"discord-moderator/config"
	"discord-moderator/model"
	"discord-moderator/moderation"
	"discord-moderator/utils"
	"discord-moderator/utils/database/sanctions"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	replyCacheSize = 1024
	replyCacheTTL  = time.Minute
)

type Bot struct {
	Session *discordgo.Session
	config  atomic.Value // *model.Config
	DB      *sqlx.DB
	Logger  *zap.Logger

	Store         *sanctions.Store
	Gate          *moderation.Gate
	Classifier    *moderation.Classifier
	Roles         *moderation.RoleManager
	Sanctions     *moderation.Scheduler
	Applier       *moderation.Applier
	Reconstructor *moderation.Reconstructor
	Actions       *moderation.Actions
	Replier       *utils.Replier

	StartedAt time.Time

	scheduler     *Scheduler
	metricsServer *http.Server
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetDB() *sqlx.DB {
	return b.DB
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func (b *Bot) GetLogger() *zap.Logger {
	return b.Logger
}

func (b *Bot) GetApplier() *moderation.Applier {
	return b.Applier
}

// New builds the session and the moderation components. The session is not opened.
func New(cfg *model.Config, db *sqlx.DB, logger *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	dg.StateEnabled = false

	policy, err := moderation.ParsePolicy(cfg.Moderation.Policy)
	if err != nil {
		return nil, err
	}
	mode, err := moderation.ParseMatchMode(cfg.Moderation.MatchMode)
	if err != nil {
		return nil, err
	}
	classifier, err := moderation.NewClassifier(config.ReasonRules(cfg.Moderation), mode, cfg.Moderation.DefaultDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid reason table: %w", err)
	}

	b := &Bot{
		Session:    dg,
		DB:         db,
		Logger:     logger,
		Store:      sanctions.NewStore(db),
		Gate:       moderation.NewGate(policy, cfg.Moderation.AdminRoleName, cfg.Moderation.OwnerRoleName),
		Classifier: classifier,
		Roles:      moderation.NewRoleManager(dg, logger),
		Sanctions:  moderation.NewScheduler(moderation.RealClock),
		Replier:    utils.NewReplier(dg, utils.NewDedupeCache(replyCacheSize, replyCacheTTL), logger),
	}
	b.config.Store(cfg)

	b.Applier = moderation.NewApplier(dg, b.Gate, classifier, b.Roles, b.Store, b.Sanctions,
		&expiryNotifier{bot: b, logger: logger.Named("notifier")}, logger)
	b.Reconstructor = moderation.NewReconstructor(dg, b.Roles, b.Store, classifier,
		moderation.RealClock, cfg.Moderation.AuditLookback, logger)
	b.Actions = moderation.NewActions(dg, b.Gate, moderation.RealClock, logger)
	b.scheduler = NewScheduler(b)

	return b, nil
}

func (b *Bot) Close() {
	b.Logger.Info("Gracefully shutting down.")
	b.scheduler.Stop()
	// pending timers are dropped; their rows are re-armed on the next start
	b.Sanctions.Stop()

	if b.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.metricsServer.Shutdown(ctx); err != nil {
			b.Logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}

	if err := b.Session.Close(); err != nil {
		b.Logger.Warn("Error closing session", zap.Error(err))
	}
	if err := b.DB.Close(); err != nil {
		b.Logger.Warn("Error closing database", zap.Error(err))
	}
	_ = b.Logger.Sync()
}
