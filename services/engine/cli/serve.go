package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/kafka"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/mailer"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/postgres"
	redisstore "github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/internal/redis"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/retry"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/pkg/telemetry"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine/config"
	"github.com/lekha-shree-y-c/technexus-volunteer-management-sub000/services/engine/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reminder engine",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-addr", ":8080", "HTTP API listen address")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("redis-addr", "", "Redis address (host:port); empty disables run locks and rate limiting")
	serveCmd.Flags().String("kafka-brokers", "", "comma-separated Kafka broker addresses; empty disables the audit topic")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")
	serveCmd.Flags().String("reminder-cron", "0 9 * * *", "cron cadence for the reminder job")
	serveCmd.Flags().String("status-cron", "0 2 * * *", "cron cadence for the status evaluation job")
	serveCmd.Flags().String("escalation-cron", "0 8 * * *", "cron cadence for the escalation job")
	serveCmd.Flags().Duration("job-timeout", 10*time.Minute, "hard deadline for a scheduled run")
	serveCmd.Flags().StringSlice("admin-emails", nil, "administrator addresses for overdue escalations")

	bindFlag("http_addr", serveCmd.Flags(), "http-addr")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	bindFlag("reminder_cron", serveCmd.Flags(), "reminder-cron")
	bindFlag("status_cron", serveCmd.Flags(), "status-cron")
	bindFlag("escalation_cron", serveCmd.Flags(), "escalation-cron")
	bindFlag("job_timeout", serveCmd.Flags(), "job-timeout")
	bindFlag("admin_emails", serveCmd.Flags(), "admin-emails")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "reminderd")
	instanceID := "reminderd-" + uuid.New().String()[:8]

	if len(cfg.AdminEmails) == 0 {
		return fmt.Errorf("admin_emails is required: overdue escalations need at least one recipient")
	}

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "reminderd", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	err = retry.Do(initCtx, retry.Config{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		OnRetry: func(attempt int, err error) {
			logger.Warn("postgres not ready, retrying",
				slog.Int("attempt", attempt), slog.String("error", err.Error()))
		},
	}, func() error {
		var connErr error
		pool, connErr = postgres.NewPool(initCtx, cfg.PostgresDSN)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	opts := []engine.Option{
		engine.WithLogger(logger),
	}
	if cfg.DispatchConcurrency > 0 {
		opts = append(opts, engine.WithConcurrency(cfg.DispatchConcurrency))
	}
	if cfg.SendTimeout > 0 {
		opts = append(opts, engine.WithSendTimeout(cfg.SendTimeout))
	}

	var guard redisstore.RunGuard
	if cfg.RedisAddr != "" {
		redisClient := redisstore.NewClient(cfg.RedisAddr)
		defer redisClient.Close()

		guard = redisstore.NewRunGuard(redisClient, instanceID, cfg.JobTimeout)
		if cfg.SendRateLimit > 0 {
			opts = append(opts, engine.WithLimiter(
				redisstore.NewRateLimiter(redisClient, cfg.SendRateLimit, cfg.SendRateWindow)))
		}
	}

	if cfg.KafkaBrokers != "" {
		producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","))
		defer producer.Close()
		opts = append(opts, engine.WithAudit(producer))
	}

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})

	eng := engine.New(store, sender, cfg.AdminEmails, opts...)

	sched := engine.NewScheduler(engine.NewRunRegistry(), guard, cfg.JobTimeout, logger)
	if err := sched.Register(engine.JobReminder, cfg.ReminderCron, eng.RunReminders); err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}
	if err := sched.Register(engine.JobStatusEvaluation, cfg.StatusCron, eng.RunStatusEvaluation); err != nil {
		return fmt.Errorf("register status job: %w", err)
	}
	if err := sched.Register(engine.JobEscalation, cfg.EscalationCron, eng.RunEscalations); err != nil {
		return fmt.Errorf("register escalation job: %w", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, store.Ping, logger)

	rest := handler.NewREST(sched, store, logger)
	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      rest.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // synchronous manual triggers can run long
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sched.Start()
	logger.Info("engine started",
		slog.String("instance_id", instanceID),
		slog.String("reminder_cron", cfg.ReminderCron),
		slog.String("status_cron", cfg.StatusCron),
		slog.String("escalation_cron", cfg.EscalationCron),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-quit:
		logger.Info("shutting down...", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("http server failed", slog.String("error", err.Error()))
	}
	runCancel()

	// Let in-flight runs finish before closing the store.
	<-sched.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.String("error", err.Error()))
	}

	logger.Info("stopped")
	return nil
}
