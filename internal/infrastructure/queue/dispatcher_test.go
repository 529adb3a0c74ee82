package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/retailops/account-system/internal/core/domain"
)

type memAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (m *memAuditRepo) Insert(_ context.Context, event *domain.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *memAuditRepo) snapshot() []domain.AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuthEvent, len(m.events))
	copy(out, m.events)
	return out
}

func TestDispatcherPersistsEvents(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewAuditDispatcher(2, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Record(domain.AuthEvent{
			AccountID: "acc-1",
			Username:  "alice",
			Kind:      domain.AuthLoginSucceeded,
			Timestamp: time.Now().UTC(),
		})
	}

	deadline := time.After(2 * time.Second)
	for len(repo.snapshot()) < 10 {
		select {
		case <-deadline:
			t.Fatalf("expected 10 events, got %d", len(repo.snapshot()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcherShardIsStable(t *testing.T) {
	d := NewAuditDispatcher(4, &memAuditRepo{}, zerolog.Nop())

	first := d.shardIndex("acc-1")
	for i := 0; i < 100; i++ {
		if got := d.shardIndex("acc-1"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 4 {
		t.Fatalf("shard out of range: %d", first)
	}
}
