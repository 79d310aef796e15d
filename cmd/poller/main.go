package main

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paygate/internal/config"
	"paygate/internal/logger"
	"paygate/internal/store"
)

// The poller drains the webhook outbox and hands settlement/webhook events to
// Kafka. It needs the shared postgres backend; the in-memory store is not
// visible across processes.
func main() {
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	if cfg.Storage.Backend != "postgres" {
		log.Fatal("poller requires storage.backend=postgres")
	}

	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true, TranslateError: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	st, err := store.NewGormStore(gdb)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	log.Info("paygate-poller started")
	for range ticker.C {
		ctx := context.Background()
		events, err := st.PollOutbox(ctx, 100)
		if err != nil {
			log.Errorf("poll outbox: %v", err)
			continue
		}
		for _, evt := range events {
			msg := kafka.Message{
				Key:   []byte(fmt.Sprintf("%d", evt.ID)),
				Value: []byte(evt.Payload),
				Time:  time.Now(),
			}
			if err := writer.WriteMessages(ctx, msg); err != nil {
				log.Errorf("publish id=%d: %v", evt.ID, err)
				continue
			}
			if err := st.MarkOutboxProcessed(ctx, evt.ID); err != nil {
				log.Errorf("mark processed id=%d: %v", evt.ID, err)
			} else {
				log.Infof("event %d (%s) sent", evt.ID, evt.EventType)
			}
		}
	}
}
