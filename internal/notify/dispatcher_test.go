package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
)

// captureSink records delivered notifications and can be made to fail a
// configured number of times per notification.
type captureSink struct {
	mu        sync.Mutex
	delivered []*domain.Notification
	failures  int
}

func (s *captureSink) Send(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func (s *captureSink) all() []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Notification, len(s.delivered))
	copy(out, s.delivered)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestDispatcher_Delivers(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Notify("user-1", domain.NotificationSale, "Book sold", "your book sold", "/books/b1")

	waitFor(t, func() bool { return len(sink.all()) == 1 })

	got := sink.all()[0]
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.NotificationSale, got.Type)
	assert.Equal(t, "Book sold", got.Title)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	sink := &captureSink{failures: 2}
	d := NewDispatcher(sink, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Notify("user-1", domain.NotificationWithdrawalPending, "Withdrawal requested", "pending", "/wallet")

	// Two failures then success on the third attempt.
	waitFor(t, func() bool { return len(sink.all()) == 1 })
}

func TestDispatcher_ShutdownDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, slog.New(slog.DiscardHandler))

	// No Start: events sit in the queue until Shutdown drains them.
	for i := 0; i < 5; i++ {
		d.Notify("user-1", domain.NotificationSale, "Book sold", "sold", "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	assert.Len(t, sink.all(), 5)
}

func TestDispatcher_NotifyAfterShutdownDropped(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	// Must not panic on the closed queue, and must not deliver.
	d.Notify("user-1", domain.NotificationSale, "Book sold", "sold", "")
	assert.Empty(t, sink.all())
}
