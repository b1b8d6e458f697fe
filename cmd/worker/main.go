package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"communityhub/internal/config"
	"communityhub/internal/notifications"
	"communityhub/internal/queue"
	"communityhub/internal/store"
)

// Worker consumes queued notification jobs and fans them out to Postgres and
// the Redis unread counters.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "communityhub:jobs")
	}

	notifRepo := notifications.NewRepository(db.Client)
	notifSvc := notifications.NewService(notifRepo, redisClient.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if err := notifSvc.Process(ctx, msg); err != nil {
			log.Printf("process %s message failed: %v", msg.Kind, err)
		}
	}

	log.Println("worker stopped")
}
