package notification_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/notification"
)

type fakeSource struct {
	msgs []kafka.Message
	i    int
}

func (f *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	if f.i < len(f.msgs) {
		m := f.msgs[f.i]
		f.i++
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type fakeSender struct {
	mu        sync.Mutex
	sent      []string
	failFirst int
	done      chan struct{}
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return assert.AnError
	}
	f.sent = append(f.sent, to)
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return nil
}

func queuedEvent(t *testing.T, typ models.NotificationType, to string) kafka.Message {
	payload, err := json.Marshal(models.NotificationEvent{Type: typ, To: to, Timestamp: time.Now()})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(typ), Value: payload}
}

func runWorker(t *testing.T, source *fakeSource, sender *fakeSender, timeout time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := notification.NewWorker(source, sender, logger.NewLogger())
	go worker.Run(ctx)

	select {
	case <-sender.done:
	case <-time.After(timeout):
		t.Fatal("worker did not deliver in time")
	}
}

func TestWorkerDeliversQueuedNotification(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{queuedEvent(t, models.NotifyWelcome, "alice@example.com")}}
	sender := &fakeSender{done: make(chan struct{})}

	runWorker(t, source, sender, 3*time.Second)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{"alice@example.com"}, sender.sent)
}

func TestWorkerRetriesFailedDelivery(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{queuedEvent(t, models.NotifyNewOrder, "admin@example.com")}}
	sender := &fakeSender{failFirst: 1, done: make(chan struct{})}

	runWorker(t, source, sender, 5*time.Second)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{"admin@example.com"}, sender.sent)
}

func TestWorkerDropsMalformedMessage(t *testing.T) {
	source := &fakeSource{msgs: []kafka.Message{
		{Key: []byte("junk"), Value: []byte("{not json")},
		queuedEvent(t, models.NotifyWelcome, "alice@example.com"),
	}}
	sender := &fakeSender{done: make(chan struct{})}

	runWorker(t, source, sender, 3*time.Second)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	// Only the valid message results in a delivery.
	assert.Equal(t, []string{"alice@example.com"}, sender.sent)
}
