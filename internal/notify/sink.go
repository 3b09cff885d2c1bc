package notify

import (
	"context"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

// StoreSink persists notifications so users can read them from the API.
type StoreSink struct {
	store store.Store
}

// NewStoreSink creates a sink writing to the given store.
func NewStoreSink(st store.Store) *StoreSink {
	return &StoreSink{store: st}
}

// Send implements Sink.
func (s *StoreSink) Send(ctx context.Context, n *domain.Notification) error {
	return s.store.CreateNotification(ctx, n)
}

// NoopSink discards notifications. Used in tests and tooling where
// delivery is irrelevant.
type NoopSink struct{}

// Send implements Sink.
func (NoopSink) Send(_ context.Context, _ *domain.Notification) error { return nil }
