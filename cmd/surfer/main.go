package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/driftline/market-surfer/internal/book"
	"github.com/driftline/market-surfer/internal/config"
	"github.com/driftline/market-surfer/internal/feed"
	"github.com/driftline/market-surfer/internal/ladder"
	"github.com/driftline/market-surfer/internal/metrics"
	"github.com/driftline/market-surfer/internal/model"
	"github.com/driftline/market-surfer/internal/report"
	"github.com/driftline/market-surfer/internal/venue"
	"github.com/driftline/market-surfer/internal/venue/bibox"
	"github.com/driftline/market-surfer/internal/venue/okex"
	"github.com/driftline/market-surfer/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/surfer.yaml", "path to config file")
	pairFlag := flag.String("pair", "", "trading pair override (BASE_QUOTE)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Credentials usually arrive through the environment; a local .env is a
	// convenience, its absence is not an error.
	godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting surfer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pair, err := resolvePair(cfg, *pairFlag)
	if err != nil {
		logger.Error("failed to resolve trading pair", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"venue", cfg.Venue.Name,
		"pair", pair,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	adapter, err := newAdapter(cfg, logger)
	if err != nil {
		logger.Error("failed to create venue adapter", "error", err)
		os.Exit(1)
	}

	// Components run on a background context and are stopped explicitly in
	// shutdown order: the engine's cancel-all needs a live book cache.
	bookCfg := book.DefaultConfig()
	bookCfg.RefreshInterval = cfg.Book.RefreshInterval
	bookCfg.QueueSize = cfg.Book.QueueSize
	bookCfg.CallTimeout = cfg.Venue.Timeout

	cache := book.New(bookCfg, adapter, pair, logger)
	if err := cache.Start(context.Background()); err != nil {
		logger.Error("failed to start order book cache", "error", err)
		os.Exit(1)
	}

	priceFeed, stopFeed, err := newFeed(cfg, adapter, pair, logger)
	if err != nil {
		logger.Error("failed to start price feed", "error", err)
		os.Exit(1)
	}

	var reporter report.Reporter = report.NewLogReporter(logger)
	var publisher *report.Publisher
	if cfg.Reporting.Endpoint != "" {
		httpReporter := report.NewHTTPReporter(cfg.Reporting.Endpoint, report.WithLogger(logger))
		reporter = report.MultiReporter{reporter, httpReporter}

		publisher = report.NewPublisher(httpReporter, pair, func() []model.Order {
			return cache.Snapshot().Orders
		}, cfg.Reporting.Every, logger)
		publisher.Start(context.Background())
	}

	// Missing or invalid band settings degrade to observation only: the
	// cache and metrics keep running, no orders are placed.
	var engine *ladder.Engine
	bands, bandsErr := cfg.Bands(pair)
	if bandsErr != nil {
		logger.Warn("no usable band configuration, running degraded",
			"pair", pair,
			"error", bandsErr,
		)
	} else {
		engine = ladder.New(ladder.Config{
			Pair:             pair,
			SyncInterval:     cfg.Engine.SyncInterval,
			InitialDelay:     cfg.Engine.InitialDelay,
			SettleDelay:      cfg.Engine.SettleDelay,
			FlagPollInterval: cfg.Engine.FlagPollInterval,
			FlagPollTimeout:  cfg.Engine.FlagPollTimeout,
			ShutdownTimeout:  cfg.Engine.ShutdownTimeout,
			ArbitragePercent: bands.ArbitragePercent,
			BandOrderLimit:   bands.BandOrderLimit,
			OrderAmount:      bands.OrderAmount(),
			BasePrice:        bands.BasePrice,
			EnforceBandLimit: *cfg.Engine.EnforceBandLimit,
		}, cache, adapter,
			ladder.WithLogger(logger),
			ladder.WithFeed(priceFeed),
			ladder.WithReporter(reporter),
		)
		if err := engine.Start(context.Background()); err != nil {
			logger.Error("failed to start reconciliation engine", "error", err)
			os.Exit(1)
		}
	}

	metrics.Register()
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHandler(cfg, cache, engine),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(
			context.Background(), cfg.Engine.ShutdownTimeout+10*time.Second)
		defer shutdownCancel()

		if engine != nil {
			if err := engine.Stop(shutdownCtx); err != nil {
				logger.Error("engine shutdown incomplete", "error", err)
			}
		}
		if publisher != nil {
			publisher.Stop(shutdownCtx)
		}
		if stopFeed != nil {
			stopFeed(shutdownCtx)
		}
		cache.Stop(shutdownCtx)
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("surfer running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	if err := g.Wait(); err != nil {
		logger.Error("surfer exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("surfer stopped")
}

// resolvePair picks the trading pair: the flag wins, otherwise the first
// configured band section.
func resolvePair(cfg *config.SurferConfig, flagValue string) (model.Pair, error) {
	raw := flagValue
	if raw == "" && len(cfg.Pairs) > 0 {
		raw = cfg.Pairs[0].Pair
	}

	pair := model.Pair(raw)
	if !pair.Valid() {
		return "", fmt.Errorf("invalid pair %q, want BASE_QUOTE", raw)
	}
	return pair, nil
}

// newAdapter constructs the venue client named in the config.
func newAdapter(cfg *config.SurferConfig, logger *slog.Logger) (venue.Adapter, error) {
	switch cfg.Venue.Name {
	case "bibox":
		return bibox.NewClient(
			cfg.Venue.RestURL,
			cfg.Venue.APIKey,
			cfg.Venue.Secret,
			bibox.WithTimeout(cfg.Venue.Timeout),
			bibox.WithRetries(cfg.Venue.MaxRetries, time.Second),
			bibox.WithLogger(logger),
		), nil
	case "okex":
		return okex.NewClient(
			cfg.Venue.RestURL,
			cfg.Venue.APIKey,
			cfg.Venue.Secret,
			okex.WithTimeout(cfg.Venue.Timeout),
			okex.WithRetries(cfg.Venue.MaxRetries, time.Second),
			okex.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown venue %q", cfg.Venue.Name)
	}
}

// newFeed constructs the configured reference price feed and returns its
// stop function, nil for feeds without a background loop.
func newFeed(cfg *config.SurferConfig, adapter venue.Adapter, pair model.Pair, logger *slog.Logger) (ladder.PriceFeed, func(context.Context) error, error) {
	switch cfg.PriceFeed.Source {
	case "fixed":
		return feed.NewFixed(cfg.PriceFeed.FixedPrice), nil, nil
	case "ws":
		ws := feed.NewWS(cfg.PriceFeed.URL, pair, cfg.PriceFeed.Expiry, logger)
		if err := ws.Start(context.Background()); err != nil {
			return nil, nil, err
		}
		return ws, ws.Stop, nil
	case "venue":
		vl := feed.NewVenueLast(adapter, pair, cfg.Book.RefreshInterval, cfg.PriceFeed.Expiry, logger)
		if err := vl.Start(context.Background()); err != nil {
			return nil, nil, err
		}
		return vl, vl.Stop, nil
	default:
		return nil, nil, fmt.Errorf("unknown price feed source %q", cfg.PriceFeed.Source)
	}
}

// createHandler serves health and Prometheus metrics.
func createHandler(cfg *config.SurferConfig, cache *book.Manager, engine *ladder.Engine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		snap := cache.Snapshot()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		age := time.Since(snap.Taken)
		health.Components["book"] = map[string]any{
			"resting_orders": len(snap.Orders),
			"snapshot_age":   age.String(),
			"placing":        snap.Placing,
			"cancelling":     snap.Cancelling,
		}
		if age > 2*cfg.Book.RefreshInterval {
			health.Status = "degraded"
		}

		if engine == nil {
			health.Components["engine"] = "disabled"
			health.Status = "degraded"
		} else {
			health.Components["engine"] = "running"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.Handle(cfg.Metrics.Path, promhttp.Handler())

	return mux
}
