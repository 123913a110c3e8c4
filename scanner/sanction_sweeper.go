package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often stored mutes are checked for missed expiries.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper lifts stored mutes whose expiry has passed. *moderation.Applier satisfies it.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// StartSanctionSweeper blocks, running a sweep every interval until done is closed.
func StartSanctionSweeper(sweeper Sweeper, interval time.Duration, logger *zap.Logger, done <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepOnce(sweeper, interval, logger)
		case <-done:
			return
		}
	}
}

func sweepOnce(sweeper Sweeper, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := sweeper.SweepExpired(ctx)
	if err != nil {
		logger.Warn("Sanction sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("Lifted overdue mutes", zap.Int("count", n))
	}
}
