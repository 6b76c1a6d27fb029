package main

// Consume review events published by the API:
//   go run ./cmd/worker

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/streadway/amqp"

	"resume-reviewer/internal/queue"
	"resume-reviewer/internal/shared/config"
	"resume-reviewer/internal/shared/telemetry"
)

const (
	defaultQueueName          = "review-events"
	defaultBindingKey         = "review.*"
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

type eventHandler func(ctx context.Context, msg queue.Message) error

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.AMQPURL) == "" {
		log.Fatal("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queueName := envString("WORKER_QUEUE", defaultQueueName)
	bindingKey := envString("WORKER_BINDING_KEY", defaultBindingKey)
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	consumer, err := queue.NewAMQPConsumer(cfg.AMQPURL, cfg.AMQPExchange, concurrency)
	if err != nil {
		log.Fatalf("amqp consumer: %v", err)
	}
	defer consumer.Close()

	deliveries, err := consumer.Consume(queueName, bindingKey)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       queueName,
		"binding_key": bindingKey,
		"concurrency": concurrency,
	})

consumeLoop:
	for {
		select {
		case <-ctx.Done():
			break consumeLoop
		case d, ok := <-deliveries:
			if !ok {
				telemetry.Warn("worker.deliveries.closed", nil)
				break consumeLoop
			}
			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				break consumeLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handleDelivery(ctx, d, logEvent)
			}(d)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown.timeout", nil)
	}
}

// handleDelivery decodes one event and acks it once handled. Undecodable
// events are dropped; handler failures are requeued once.
func handleDelivery(ctx context.Context, d amqp.Delivery, handle eventHandler) {
	if strings.TrimSpace(string(d.Body)) == "" {
		fields := baseFields(d, "")
		telemetry.Error("worker.review.empty_body", fields)
		rejectDelivery(d, fields)
		return
	}

	msg, err := queue.DecodeMessage(d.Body)
	if err != nil {
		fields := baseFields(d, "")
		fields["body_len"] = len(d.Body)
		fields["error"] = err.Error()
		telemetry.Error("worker.review.decode_failed", fields)
		rejectDelivery(d, fields)
		return
	}

	if err := handle(ctx, msg); err != nil {
		fields := baseFields(d, msg.ReviewID)
		fields["error"] = err.Error()
		telemetry.Error("worker.review.failed", fields)
		if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
			fields["error"] = nackErr.Error()
			telemetry.Error("worker.review.nack_failed", fields)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		fields := baseFields(d, msg.ReviewID)
		fields["error"] = err.Error()
		telemetry.Error("worker.review.ack_failed", fields)
	}
}

func logEvent(ctx context.Context, msg queue.Message) error {
	fields := map[string]any{
		"review_id":    msg.ReviewID,
		"user_id":      msg.UserID,
		"status":       msg.Status,
		"completed_at": msg.CompletedAt,
	}
	if msg.RequestID != "" {
		fields["request_id"] = msg.RequestID
	}
	if msg.Score != nil {
		fields["score"] = *msg.Score
	}
	telemetry.Info("worker.review."+msg.Status, fields)
	return ctx.Err()
}

func rejectDelivery(d amqp.Delivery, fields map[string]any) {
	if err := d.Reject(false); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.review.reject_failed", fields)
	}
}

func baseFields(d amqp.Delivery, reviewID string) map[string]any {
	fields := map[string]any{
		"review_id":   reviewID,
		"message_id":  d.MessageId,
		"routing_key": d.RoutingKey,
		"redelivered": d.Redelivered,
	}
	if strings.TrimSpace(d.CorrelationId) != "" {
		fields["request_id"] = d.CorrelationId
	}
	return fields
}

func envString(key, def string) string {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		return raw
	}
	return def
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
