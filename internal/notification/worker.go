package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"gba-rental/internal/logger"
	"gba-rental/internal/metrics"
	"gba-rental/internal/models"
)

const maxDeliveryAttempts = 3

// MessageSource is the queue end the worker reads from.
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
}

// Worker drains the notification topic and delivers emails with a small
// linear backoff between attempts. A message that still fails after the
// last attempt is logged and dropped; notifications are best effort.
type Worker struct {
	source MessageSource
	sender EmailSender
	logger *logger.Logger
}

func NewWorker(source MessageSource, sender EmailSender, log *logger.Logger) *Worker {
	return &Worker{source: source, sender: sender, logger: log}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("NOTIFY", "Notification worker started")

	for {
		msg, err := w.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("NOTIFY", "Notification worker stopping")
				return
			}
			w.logger.Error("NOTIFY", fmt.Sprintf("Failed to fetch notification message: %v", err))
			time.Sleep(time.Second)
			continue
		}

		w.handleMessage(ctx, msg)
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg kafka.Message) {
	var event models.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("NOTIFY", fmt.Sprintf("Dropping malformed notification message: %v", err))
		return
	}

	if err := w.deliverWithRetry(ctx, event); err != nil {
		metrics.RecordNotificationSent(string(event.Type), "failed")
		w.logger.Error("NOTIFY", fmt.Sprintf("Giving up on %s notification to %s: %v", event.Type, event.To, err))
		return
	}
	metrics.RecordNotificationSent(string(event.Type), "sent")
}

func (w *Worker) deliverWithRetry(ctx context.Context, event models.NotificationEvent) error {
	subject, body := RenderEmail(event)

	var lastErr error
	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		lastErr = w.sender.Send(event.To, subject, body)
		if lastErr == nil {
			w.logger.LogEmail("DELIVER", event.To, fmt.Sprintf("%s notification delivered (attempt %d)", event.Type, attempt))
			return nil
		}

		if attempt < maxDeliveryAttempts {
			backoff := time.Duration(attempt) * time.Second
			w.logger.Warn("NOTIFY", fmt.Sprintf("Delivery attempt %d for %s notification failed, retrying in %s: %v",
				attempt, event.Type, backoff, lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxDeliveryAttempts, lastErr)
}
