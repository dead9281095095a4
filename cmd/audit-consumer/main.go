package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/queue"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadAuditConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{URL: cfg.URL, Queue: cfg.Queue, Dir: cfg.LogDir}
	log.Printf("audit-consumer: consuming %s into %s/audit.log", cfg.Queue, cfg.LogDir)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("audit-consumer: %v", err)
	}
	log.Printf("audit-consumer: stopped")
}
