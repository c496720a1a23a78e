package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/inkgen/internal/config"
	"github.com/illegalcall/inkgen/internal/metrics"
	"github.com/illegalcall/inkgen/internal/models"
	"github.com/illegalcall/inkgen/pkg/database"
)

// UsageKey is the Redis hash holding per-operation counters for a user.
func UsageKey(userID string) string {
	return "usage:" + userID
}

// Worker consumes generation events and records usage.
type Worker struct {
	cfg       *config.Config
	db        *database.Clients
	consumer  sarama.ConsumerGroup
	ready     chan struct{}
	readyOnce sync.Once
}

func NewWorker(cfg *config.Config, db *database.Clients, consumer sarama.ConsumerGroup) *Worker {
	slog.Info("Initializing usage recorder")
	return &Worker{
		cfg:      cfg,
		db:       db,
		consumer: consumer,
		ready:    make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	slog.Info("Starting worker", "topics", topics, "group", w.cfg.Kafka.Group)

	go func() {
		for err := range w.consumer.Errors() {
			slog.Error("Kafka consumer error received", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				slog.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			// Rebalance: wait briefly before joining the next session.
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.Kafka.RetryBackoff):
			}
		}
	}()

	select {
	case <-w.ready:
		slog.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	<-done
	slog.Info("Worker shutting down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	w.readyOnce.Do(func() { close(w.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processEvent(session.Context(), message); err != nil {
			slog.Error("Failed to record usage", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.GenerationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.UsageEventsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("failed to parse generation event: %w", err)
	}
	if event.RequestID == "" || event.UserID == "" {
		metrics.UsageEventsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("generation event missing request or user id")
	}

	attempts := max(w.cfg.Kafka.RetryMax, 1)
	var (
		recorded bool
		err      error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		recorded, err = w.record(ctx, event)
		if err == nil {
			break
		}
		slog.Warn("Usage record attempt failed", "request_id", event.RequestID, "attempt", attempt, "error", err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.Kafka.RetryBackoff):
			}
		}
	}
	if err != nil {
		metrics.UsageEventsTotal.WithLabelValues("failed").Inc()
		return err
	}

	status := "recorded"
	if !recorded {
		status = "duplicate"
	}
	metrics.UsageEventsTotal.WithLabelValues(status).Inc()
	slog.Info("Usage event processed", "request_id", event.RequestID, "operation", event.Operation, "status", status)
	return nil
}

// record stores the event once. Redelivered events hit the request_id
// conflict and leave the Redis counters alone.
func (w *Worker) record(ctx context.Context, event models.GenerationEvent) (bool, error) {
	res, err := w.db.DB.ExecContext(ctx,
		`INSERT INTO generation_usage (request_id, user_id, operation, cost, remaining_credits, image_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (request_id) DO NOTHING`,
		event.RequestID, event.UserID, event.Operation, event.Cost, event.RemainingCredits, event.ImageCount, event.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert usage: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	key := UsageKey(event.UserID)
	_, err = w.db.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, event.Operation, 1)
		pipe.HIncrBy(ctx, key, "credits", int64(event.Cost))
		return nil
	})
	if err != nil {
		// Counters are best effort once the row is stored.
		slog.Error("Failed to update usage counters", "request_id", event.RequestID, "error", err)
	}
	return true, nil
}
