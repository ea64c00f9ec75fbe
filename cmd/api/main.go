package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/discount"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/rules"
	"storefront/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize database connection pool and schema
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	ruleRepo := repository.NewRuleRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Rule source, cached in front of either backend
	source, usage, err := newRuleSource(ctx, cfg, ruleRepo, m, logger)
	if err != nil {
		return err
	}
	cached := rules.NewCachedSource(source, cfg.Rules.CacheTTL, logger)

	engine := discount.NewEngine(logger, discount.WithCurrency(cfg.Discount.Currency))

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, cached, logger)
	categoryService := service.NewCategoryService(categoryRepo, cached, logger)
	discountService := service.NewDiscountService(cached, engine, productRepo, m, logger)
	ruleService := service.NewRuleService(ruleRepo, productRepo, categoryRepo, cached, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:   orderRepo,
		Products: productRepo,
		Rules:    cached,
		Engine:   engine,
		Usage:    usage,
		Cache:    cached,
		Metrics:  m,
	}, logger)

	// Initialize HTTP handlers and router
	opts := router.Options{APIKey: cfg.Auth.APIKey, Metrics: m}
	if cfg.RateLimit.Enabled {
		opts.RateLimiter = middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst, m, logger)
	}
	mux := router.New(router.Handlers{
		Products:   handler.NewProductHandler(productService, logger),
		Categories: handler.NewCategoryHandler(categoryService, logger),
		Discounts:  handler.NewDiscountHandler(discountService, logger),
		Rules:      handler.NewRuleHandler(ruleService, logger),
		Orders:     handler.NewOrderHandler(orderService, logger),
	}, opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("rule_source", cfg.Rules.Source).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop background work such as the rate limiter sweep
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newRuleSource picks the rule backend. Usage budgets can only be tracked
// for rules stored in Postgres, so the recorder is nil for file sources.
func newRuleSource(
	ctx context.Context,
	cfg *config.Config,
	ruleRepo repository.RuleRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (rules.Source, service.UsageRecorder, error) {
	if cfg.Rules.Source == config.RuleSourcePostgres {
		logger.Info().Msg("reading discount rules from postgres")
		return rules.NewRepositorySource(ruleRepo), ruleRepo, nil
	}

	var s3Loader rules.Loader
	if cfg.S3.Enabled {
		var err error
		s3Loader, err = rules.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for rule files (S3 disabled)")
	}

	loader := rules.NewFallbackLoader(
		s3Loader,
		rules.NewFileLoader(logger),
		cfg.S3.Prefix,
		cfg.S3.Enabled,
		logger,
		rules.OnFallback(m.SourceFallback),
	)
	logger.Info().Strs("files", cfg.Rules.Files).Msg("reading discount rules from files")
	return rules.NewFileSource(loader, cfg.Rules.Files, logger), nil, nil
}
