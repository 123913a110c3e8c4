package bot

import (
	"context"
	"sync"
	"time"

	"discord-moderator/model"
	"discord-moderator/moderation"
	"discord-moderator/scanner"

	"go.uber.org/zap"
)

const rearmTimeout = 2 * time.Minute

// BotProvider defines the methods the scheduler needs from the Bot.
type BotProvider interface {
	GetConfig() *model.Config
	GetLogger() *zap.Logger
	GetApplier() *moderation.Applier
}

// Scheduler manages the background tasks.
type Scheduler struct {
	bot    BotProvider
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewScheduler(bot BotProvider) *Scheduler {
	return &Scheduler{
		bot:    bot,
		logger: bot.GetLogger().Named("scheduler"),
		done:   make(chan struct{}),
	}
}

// Start re-arms stored mutes and starts the sweeper.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.rearmStoredSanctions()
	go s.startSanctionSweeper()
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.logger.Info("Stopping scheduler...")
		close(s.done)
		s.wg.Wait()
		s.logger.Info("Scheduler stopped.")
	})
}

func (s *Scheduler) rearmStoredSanctions() {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), rearmTimeout)
	defer cancel()

	n, err := s.bot.GetApplier().Rearm(ctx)
	if err != nil {
		s.logger.Error("Failed to re-arm stored mutes", zap.Error(err))
		return
	}
	s.logger.Info("Re-armed stored mutes", zap.Int("count", n))
}

func (s *Scheduler) startSanctionSweeper() {
	defer s.wg.Done()
	interval := s.bot.GetConfig().Moderation.SweepInterval
	scanner.StartSanctionSweeper(s.bot.GetApplier(), interval, s.logger.Named("sweeper"), s.done)
}
