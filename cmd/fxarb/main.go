package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/fxarb/config"
	"github.com/alejandrodnm/fxarb/internal/adapters/ibkr"
	"github.com/alejandrodnm/fxarb/internal/adapters/news"
	"github.com/alejandrodnm/fxarb/internal/adapters/notify"
	"github.com/alejandrodnm/fxarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/fxarb/internal/adapters/sentiment"
	"github.com/alejandrodnm/fxarb/internal/adapters/storage"
	"github.com/alejandrodnm/fxarb/internal/books"
	"github.com/alejandrodnm/fxarb/internal/bot"
	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/execution"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "analysis", "execution mode: analysis|paper|live")
	once := flag.Bool("once", false, "run one evaluation cycle and exit")
	report := flag.Bool("report", false, "print recorded trades + PnL and exit")
	export := flag.String("export", "", "export the ledger to a CSV file and exit")
	status := flag.String("status", "", "filter report by status: PENDING|EXECUTED|CANCELLED|FAILED")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	compact := flag.Bool("compact", false, "one-line output instead of tables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ledger, err := storage.NewSQLiteLedger(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open ledger", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer ledger.Close()

	notifier := notify.NewConsole(*compact)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report || *export != "" {
		runReport(ctx, ledger, notifier, *status, *export)
		return
	}

	slog.Info("fxarb starting",
		"config", *configPath,
		"mode", *mode,
		"interval", cfg.PollingInterval(),
		"markets", len(cfg.Watchlist),
		"once", *once,
	)

	venue := ibkr.NewClient(cfg.Venue.BaseURL, cfg.Venue.Name, cfg.Venue.AccountID)
	store := books.NewStore()
	feed := polymarket.NewStream(cfg.Feed.WSURL, store)

	var scorer ports.SentimentScorer
	var newsClient ports.NewsProvider
	if cfg.Sentiment.Enabled {
		scorer, err = sentiment.New(cfg.Sentiment.Method)
		if err != nil {
			slog.Error("failed to build sentiment scorer", "err", err)
			os.Exit(1)
		}
		newsClient = news.NewClient(cfg.Sentiment.NewsAPIURL, cfg.Sentiment.NewsAPIKey)
	}

	execMode := domain.ModePaper
	if *mode == "live" {
		execMode = domain.ModeLive
	}

	evaluator, err := execution.NewEvaluator(execution.EvaluatorConfig{
		Venue:        cfg.Venue.Name,
		MarketType:   "Binary Option",
		RiskFreeRate: cfg.Bot.RiskFreeRate,
		ArbThreshold: cfg.Bot.ArbThreshold,
		QuoteTimeout: cfg.QuoteTimeout(),
		Mode:         execMode,
	}, venue)
	if err != nil {
		slog.Error("failed to build evaluator", "err", err)
		os.Exit(1)
	}

	// En modo analysis no hay coordinator: se evalúa y se loguea, nada más.
	var coordinator *execution.Coordinator
	switch *mode {
	case "analysis":
	case "paper", "live":
		coordinator, err = execution.NewCoordinator(venue, ledger, execMode, cfg.Venue.AllowLiveExecution)
		if err != nil {
			slog.Error("failed to build coordinator", "err", err)
			os.Exit(1)
		}
	default:
		slog.Error("invalid mode, must be analysis|paper|live", "mode", *mode)
		os.Exit(1)
	}

	b := bot.New(*cfg, store, feed, evaluator, coordinator, ledger, scorer, newsClient, notifier)

	if *once {
		err = b.RunOnce(ctx)
	} else {
		err = b.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		slog.Error("bot exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("fxarb stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
