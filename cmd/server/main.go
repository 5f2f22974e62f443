// Command server runs the exam-registration API: registration against
// the nominal roll, score-trail updates, pass-score management, and the
// statistics endpoints, plus the audit outbox relay.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"sebexam/internal/audit"
	examhandler "sebexam/internal/exam/handler"
	examservice "sebexam/internal/exam/service"
	examstore "sebexam/internal/exam/store"
	"sebexam/internal/filestore"
	"sebexam/internal/jwttoken"
	"sebexam/internal/nominalroll"
	"sebexam/internal/platform/config"
	"sebexam/internal/platform/httpserver"
	"sebexam/internal/platform/logger"
	platformmetrics "sebexam/internal/platform/metrics"
	platformredis "sebexam/internal/platform/redis"
	registranthandler "sebexam/internal/registrant/handler"
	registrantmetrics "sebexam/internal/registrant/metrics"
	registrantservice "sebexam/internal/registrant/service"
	registrantstore "sebexam/internal/registrant/store"
	"sebexam/internal/slip"
	statshandler "sebexam/internal/stats/handler"
	statsservice "sebexam/internal/stats/service"
	httptransport "sebexam/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	examStore := examstore.NewPostgres(db)
	sequences := examstore.NewPostgresSequences(db)
	thresholds := examstore.NewPostgresThresholds(db)
	registrantStore := registrantstore.NewPostgres(db)

	// Nominal-roll registry, cached when Redis is configured.
	var registry nominalroll.Registry = nominalroll.NewPostgresRegistry(db)
	if redisClient != nil {
		registry = nominalroll.NewCachedRegistry(registry, redisClient.Client, cfg.Redis.TTL, log)
	}

	// Audit pipeline: synchronous outbox writes, background Kafka relay.
	outbox := audit.NewPostgresOutbox(db)
	publisher := audit.NewPublisher(outbox, log)
	defer publisher.Close()

	if len(cfg.Kafka.Brokers) > 0 {
		relay, err := audit.NewRelay(ctx, outbox, audit.RelayConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.AuditTopic,
			Interval: cfg.Kafka.RelayInterval,
		}, log)
		if err != nil {
			return err
		}
		defer relay.Close()
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit relay stopped", "error", err)
			}
		}()
	} else {
		log.Warn("no kafka brokers configured, audit events stay in the outbox")
	}

	var slips slip.Sender = slip.LogSender{Logger: log}
	if cfg.SMTP.Host != "" {
		slips = slip.NewSMTPSender(slip.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	}

	httpMetrics := platformmetrics.New()
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	registrantSvc := registrantservice.New(registrantservice.Deps{
		Registrants: registrantStore,
		Exams:       examStore,
		Sequences:   sequences,
		Thresholds:  thresholds,
		Registry:    registry,
		Uploader:    filestore.NewHTTPUploader(cfg.Media.BaseURL, cfg.Media.APIKey, log),
		Auditor:     publisher,
		Slips:       slips,
		Metrics:     registrantmetrics.New(),
		Logger:      log,
	})
	examSvc := examservice.New(thresholds, publisher, log)
	statsSvc := statsservice.New(statsservice.Deps{
		Registrants: registrantStore,
		Thresholds:  thresholds,
		Logger:      log,
	})

	health := map[string]httptransport.HealthCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:  log,
		Metrics: httpMetrics,
		Handlers: []httptransport.Registrar{
			registranthandler.New(registrantSvc, log, httpMetrics, jwtValidator),
			examhandler.New(examSvc, log, httpMetrics, jwtValidator),
			statshandler.New(statsSvc, log, httpMetrics),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	errs := make(chan error, 1)
	go func() {
		log.Info("starting exam-registration api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
