package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rollbook/internal/attendance"
	"rollbook/internal/config"
	"rollbook/internal/queue"
	"rollbook/internal/store"
)

// Worker consumes mark events from the queue and writes the audit trail.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollbook:marks")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for mark events...")
	for msg := range messages {
		if msg.Type != "mark" {
			continue
		}

		var evt attendance.MarkEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad mark event payload: %v", err)
			continue
		}

		state := "absent"
		if evt.Present {
			state = "present"
		}
		log.Printf("mark %s: college=%s roll=%s %s/%s class=%s subject=%s %s at %s",
			evt.ID, evt.CollegeID, evt.RollNo, evt.Year, evt.Session, evt.Class, evt.Subject, state,
			evt.MarkedAt.Format("2006-01-02 15:04:05"))
	}

	log.Println("worker stopped")
}
