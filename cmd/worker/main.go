package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/code-tutor/internal/chat"
	"github.com/suPer8Hu/code-tutor/internal/config"
	"github.com/suPer8Hu/code-tutor/internal/db"
	"github.com/suPer8Hu/code-tutor/internal/logger"
	"github.com/suPer8Hu/code-tutor/internal/observability"
	"github.com/suPer8Hu/code-tutor/internal/scripts"
	"github.com/suPer8Hu/code-tutor/internal/store/rabbitmq"
	"github.com/suPer8Hu/code-tutor/internal/tutor"
)

const maxConcurrency = 50

func workerConcurrency(n int) int {
	if n <= 0 {
		return 2
	}
	if n > maxConcurrency {
		return maxConcurrency
	}
	return n
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With("component", "worker")

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.OtelEnabled)
	defer func() { _ = shutdownTracing(context.Background()) }()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db init failed", "error", err)
	}

	tutorClient, err := tutor.NewConfiguredClient(ctx, log, cfg)
	if err != nil {
		log.Fatal("tutor init failed", "provider", cfg.AIProvider, "error", err)
	}
	svc := chat.NewService(log, chat.NewRepo(gdb), scripts.NewRepo(gdb), tutorClient, cfg.ChatContextWindowSize)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", "error", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", "error", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		log.Fatal("queue declare", "error", err)
	}

	// strict concurrency control
	concurrency := workerConcurrency(cfg.WorkerConcurrency)
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", "error", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", "error", err)
	}

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With("worker", workerID)
			for d := range jobs {
				handleDelivery(ctx, wlog, svc, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handleDelivery acks once the job reached a terminal state. Malformed
// messages and storage failures are rejected to the dead-letter queue.
func handleDelivery(ctx context.Context, log *logger.Logger, svc *chat.Service, d amqp.Delivery) {
	jobID, err := rabbitmq.DecodeJob(d.Body)
	if err != nil || jobID == "" {
		log.Warn("bad message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	if err := svc.RunJob(ctx, jobID); err != nil {
		log.Error("job failed", "job_id", jobID, "cost", time.Since(start).String(), "error", err)
		_ = d.Nack(false, false)
		return
	}

	if cost := time.Since(start); cost > 2*time.Second {
		log.Info("job timing", "job_id", jobID, "total", cost.String())
	}
	if err := d.Ack(false); err != nil {
		log.Error("ack failed", "job_id", jobID, "error", err)
	}
}
