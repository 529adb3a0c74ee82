package ports

import (
	"context"

	"github.com/retailops/account-system/internal/core/domain"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts audit events for asynchronous persistence. Recording
// is fire-and-forget: it must never block an auth operation or fail it.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
