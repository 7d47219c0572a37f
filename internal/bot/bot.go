// Package bot wires the Telegram listener, the task scheduler, the rate
// lookup pool and the metrics endpoint together and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/currency"
	"github.com/edgard/rublebot/internal/metrics"
)

const metricsShutdownTimeout = 5 * time.Second

// Bot owns the long-running components of the application.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	tgBot     *tgbot.Bot
	scheduler *Scheduler
	lookups   *currency.Lookups
}

// NewBot creates a Bot from its already constructed components.
func NewBot(logger *slog.Logger, cfg *config.Config, tgBot *tgbot.Bot, scheduler *Scheduler, lookups *currency.Lookups) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		tgBot:     tgBot,
		scheduler: scheduler,
		lookups:   lookups,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Conversions still in flight are awaited before returning.
func (b *Bot) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener")
		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if b.cfg.Metrics.Enabled {
		g.Go(func() error {
			return b.serveMetrics(gCtx)
		})
	}

	err := g.Wait()
	if b.lookups != nil {
		b.lookups.Wait()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}
	b.logger.Info("Bot stopped gracefully")
	return nil
}

func (b *Bot) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(b.cfg.Metrics.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              b.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("Serving metrics", "addr", srv.Addr, "path", b.cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		b.logger.Warn("Metrics server shutdown failed", "error", err)
	}
	return nil
}
