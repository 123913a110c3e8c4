package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-moderator/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Run opens the gateway session, starts background tasks and blocks until the
// process is interrupted or ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	b.StartedAt = time.Now()

	b.scheduler.Start()

	if addr := b.GetConfig().MetricsAddr; addr != "" {
		b.startMetricsServer(addr)
	}

	b.Logger.Info("Bot is now running. Press CTRL-C to exit.")
	if err := utils.LogInfo(b.Session, b.GetConfig().LogChannelID, "System", "Startup", "Bot has started successfully."); err != nil {
		b.Logger.Warn("Failed to post startup log", zap.Error(err))
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sc)

	select {
	case sig := <-sc:
		b.Logger.Info("Received signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
	return nil
}

func (b *Bot) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	b.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		b.Logger.Info("Serving metrics", zap.String("addr", addr))
		if err := b.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.Logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
}
