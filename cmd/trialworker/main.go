package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"engine/internal/adapter/repo"
	"engine/internal/events"
	"engine/internal/infra"
	"engine/internal/metrics"
	"engine/internal/policy"
	"engine/internal/trial"
)

func main() {
	var (
		onceFlag    bool
		metricsAddr string
	)
	flag.BoolVar(&onceFlag, "once", false, "run a single batch and exit")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics (disabled when empty)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "trialworker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "engine-trialworker")
	if err != nil {
		logger.Fatal().Err(err).Msg("trialworker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	snap, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("trialworker: failed to load capability policy")
	}

	m := metrics.New()
	if metricsAddr != "" {
		go serveMetrics(ctx, metricsAddr, m.Handler(), logger)
	}

	publisher := events.NewPublisher(cfg.RabbitMQURL, cfg.TrialEventsQueue, 0, logger, m)
	procOpts := []trial.Option{trial.WithRecorder(m)}
	published := make(chan struct{})
	if publisher != nil {
		procOpts = append(procOpts, trial.WithNotifier(publisher))
		go func() {
			defer close(published)
			_ = publisher.Run(ctx)
		}()
	} else {
		close(published)
	}

	proc, err := trial.NewProcessor(repo.NewProfileRepository(runner), policy.NewTable(snap), trial.Config{
		Destination: cfg.TrialDestinationClass,
		TrialLength: cfg.TrialLength,
		Concurrency: cfg.TrialBatchConcurrency,
	}, logger, procOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("trialworker: invalid trial configuration")
	}

	if onceFlag {
		res, err := proc.ProcessExpiredTrials(ctx, trial.TriggerManual)
		if err != nil {
			logger.Error().Err(err).Msg("trialworker: run failed")
		}
		logger.Info().
			Int("processed", res.Processed).
			Int("errors", res.Errors).
			Msg("trialworker: single run finished")
		stop()
		<-published
		return
	}

	var lease trial.Lease
	redisClient := infra.NewRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
		lease = trial.NewRedisLease(redisClient)
	}

	scheduler := trial.NewScheduler(proc, lease, cfg.TrialScheduleInterval, logger)
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("trialworker: scheduler stopped")
	}
	<-published
	logger.Info().Msg("trialworker: stopped")
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, logger infra.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("addr", addr).Msg("trialworker: metrics server failed")
	}
}
