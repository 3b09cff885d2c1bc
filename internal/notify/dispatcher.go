// Package notify delivers user notifications asynchronously.
//
// Orchestrators enqueue events and continue immediately: delivery is
// best-effort with bounded retry, and a failed delivery is logged, never
// propagated back into the monetary flow that produced it.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/id"
)

// Sink receives notifications for delivery.
type Sink interface {
	Send(ctx context.Context, n *domain.Notification) error
}

const (
	queueSize    = 1000
	maxAttempts  = 3
	retryBackoff = 250 * time.Millisecond
	sendTimeout  = 5 * time.Second
)

// Dispatcher queues notifications and delivers them on a background worker.
type Dispatcher struct {
	sink   Sink
	queue  chan *domain.Notification
	logger *slog.Logger
	wg     sync.WaitGroup

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewDispatcher creates a dispatcher delivering to sink.
func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		queue:  make(chan *domain.Notification, queueSize),
		logger: logger,
	}
}

// Start runs the delivery loop until ctx is cancelled.
// Call once at startup in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	defer d.wg.Done()

	d.logger.Info("notification dispatcher starting")

	for {
		select {
		case n, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(n)
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopping")
			return
		}
	}
}

// Notify enqueues a notification. Non-blocking: if the queue is full or the
// dispatcher is shut down the event is dropped with a log line.
func (d *Dispatcher) Notify(userID string, typ domain.NotificationType, title, message, link string) {
	ntfID, err := id.Generate("ntf")
	if err != nil {
		d.logger.Error("notification ID generation failed", "user_id", userID, "type", typ, "error", err)
		return
	}

	n := &domain.Notification{
		ID:        ntfID,
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now(),
	}

	d.shutdownMu.RLock()
	defer d.shutdownMu.RUnlock()
	if d.shutdown {
		d.logger.Warn("notification dropped, dispatcher shut down", "user_id", userID, "type", typ)
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification dropped, queue full", "user_id", userID, "type", typ)
	}
}

// deliver attempts delivery with bounded retry and backoff.
func (d *Dispatcher) deliver(n *domain.Notification) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err = d.sink.Send(ctx, n)
		cancel()
		if err == nil {
			return
		}
		if attempt < maxAttempts {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}
	d.logger.Error("notification delivery failed",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"attempts", maxAttempts,
		"error", err,
	)
}

// Shutdown stops accepting new notifications and drains the queue, bounded
// by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.shutdownMu.Lock()
	d.shutdown = true
	close(d.queue)
	d.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for n := range d.queue {
			d.deliver(n)
		}
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification queue drained")
	case <-ctx.Done():
		d.logger.Warn("notification drain timeout, some events may be lost")
	}

	d.wg.Wait()
	return nil
}
