package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"engine/internal/activity"
	"engine/internal/adapter/repo"
	"engine/internal/events"
	"engine/internal/http/handlers"
	httpapi "engine/internal/http/httpapi"
	"engine/internal/infra"
	"engine/internal/infra/geoip"
	"engine/internal/metrics"
	"engine/internal/middleware"
	"engine/internal/policy"
	"engine/internal/trial"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg, "engine-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	snap, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.PolicyFile).Msg("failed to load capability policy")
	}
	table := policy.NewTable(snap)

	m := metrics.New()

	publisher := events.NewPublisher(cfg.RabbitMQURL, cfg.TrialEventsQueue, 0, logger, m)
	if publisher != nil {
		go func() { _ = publisher.Run(ctx) }()
	}

	store := activity.NewStore(repo.NewActivityCounterRepository(runner), cfg.ActivityTypes, logger,
		activity.WithRecorder(m))

	procOpts := []trial.Option{trial.WithRecorder(m)}
	if publisher != nil {
		procOpts = append(procOpts, trial.WithNotifier(publisher))
	}
	proc, err := trial.NewProcessor(repo.NewProfileRepository(runner), table, trial.Config{
		Destination: cfg.TrialDestinationClass,
		TrialLength: cfg.TrialLength,
		Concurrency: cfg.TrialBatchConcurrency,
	}, logger, procOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid trial configuration")
	}

	var locations middleware.LocationLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled, callers without X-Timezone use UTC")
	} else if resolver != nil {
		defer resolver.Close()
		locations = resolver
	}

	app := handlers.NewApp(store, proc, table, cfg.CronSecret, cfg.IsProduction(), logger)
	app.Ping = dbpool.Ping

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Locations:       locations,
		Metrics:         m.Handler(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("trial_destination", string(proc.Destination())).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
