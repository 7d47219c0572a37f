// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/rublebot/internal/access"
	"github.com/edgard/rublebot/internal/assistant"
	"github.com/edgard/rublebot/internal/bot"
	"github.com/edgard/rublebot/internal/bot/handlers"
	"github.com/edgard/rublebot/internal/bot/tasks"
	"github.com/edgard/rublebot/internal/config"
	"github.com/edgard/rublebot/internal/currency"
	"github.com/edgard/rublebot/internal/database"
	"github.com/edgard/rublebot/internal/logger"
	"github.com/edgard/rublebot/internal/network"
	"github.com/edgard/rublebot/internal/telegram"
)

// pollMargin is added to the long-poll timeout for the Telegram client's
// request timeout so that an idle poll is never cut short.
const pollMargin = 10 * time.Second

// startupPingTimeout bounds the history database check done before polling starts.
const startupPingTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// pingStore fails fast when the history database cannot serve queries.
func pingStore(ctx context.Context, p pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes every component, blocks until shutdown and returns the
// process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := pingStore(ctx, store, startupPingTimeout); err != nil {
		log.Error("History database is not reachable", "path", cfg.Database.Path, "error", err)
		return 1
	}

	aiHTTP, err := network.NewHTTPClient("", cfg.AI.Timeout)
	if err != nil {
		log.Error("Failed to create AI HTTP client", "error", err)
		return 1
	}
	generator, err := assistant.NewGenerator(ctx, cfg.AI, aiHTTP, log)
	if err != nil {
		log.Error("Failed to initialize AI backend", "provider", cfg.AI.Provider, "error", err)
		return 1
	}
	asst := assistant.New(store, generator, cfg.AI.MaxHistoryMessages, cfg.AI.Timeout, log)

	tgHTTP, err := network.NewHTTPClient(cfg.Telegram.Proxy, cfg.Telegram.PollTimeout+pollMargin)
	if err != nil {
		log.Error("Failed to create Telegram HTTP client", "error", err)
		return 1
	}
	rateHTTP, err := network.NewHTTPClient(cfg.Telegram.Proxy, cfg.Currency.Timeout)
	if err != nil {
		log.Error("Failed to create rate lookup HTTP client", "error", err)
		return 1
	}

	scraper := currency.NewSearchScraper(rateHTTP, cfg.Currency.SearchBaseURL, cfg.Currency.UserAgent)
	rates := currency.NewBreakerSource(scraper, currency.BreakerConfig{
		MaxFailures: cfg.Currency.BreakerFailures,
		Cooldown:    cfg.Currency.BreakerCooldown,
	}, log)
	lookups := currency.NewLookups(currency.NewConverter(rates, log), cfg.Currency.Workers, cfg.Currency.Timeout, log)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Assistant: asst,
		Gate:      access.NewGate(cfg.Telegram.Allow, log),
		Lookups:   lookups,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithHTTPClient(cfg.Telegram.PollTimeout, tgHTTP),
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
		tgbot.WithErrorsHandler(handlers.NewErrorsHandler(log)),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAll(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, tg, sched, lookups)

	log.Info("Starting bot", "ai_provider", cfg.AI.Provider, "allow_all", cfg.Telegram.Allow.All())
	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
