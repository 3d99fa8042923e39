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

	"github.com/suPer8Hu/code-tutor/internal/config"
	"github.com/suPer8Hu/code-tutor/internal/db"
	"github.com/suPer8Hu/code-tutor/internal/httpapi"
	"github.com/suPer8Hu/code-tutor/internal/logger"
	"github.com/suPer8Hu/code-tutor/internal/observability"
	"github.com/suPer8Hu/code-tutor/internal/store/rabbitmq"
	"github.com/suPer8Hu/code-tutor/internal/store/redisstore"
	"github.com/suPer8Hu/code-tutor/internal/tutor"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.OtelEnabled)

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db init failed", "error", err)
	}

	tutorClient, err := tutor.NewConfiguredClient(ctx, log, cfg)
	if err != nil {
		log.Fatal("tutor init failed", "provider", cfg.AIProvider, "error", err)
	}

	deps := httpapi.Deps{DB: gdb, Cfg: cfg, Log: log, Tutor: tutorClient}

	// Redis is optional: without it tutoring is not rate limited.
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rds.Ping(pctx); err != nil {
			log.Warn("redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr, "error", err)
			_ = rds.Close()
		} else {
			deps.Limiter = rds
			defer rds.Close()
		}
		cancel()
	}

	// RabbitMQ is optional: without it the async endpoint answers 503.
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Warn("rabbitmq unavailable, async tutoring disabled", "error", err)
		} else {
			deps.Publisher = pub
			defer pub.Close()
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("api shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Warn("otel shutdown", "error", err)
	}
}
