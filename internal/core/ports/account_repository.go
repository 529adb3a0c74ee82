package ports

import (
	"context"

	"github.com/retailops/account-system/internal/core/domain"
)

// AccountRepository is the persistence gateway for accounts. Lookups exclude
// soft-deleted records unless stated otherwise. The store is the sole
// arbiter of durable state; Save is an upsert and writes to the same record
// are serialized by the store, not by this process.
type AccountRepository interface {
	// FindByUsername matches the record regardless of deletion state: the
	// login flow needs the deleted account back so the entity guard can
	// reject it, and a soft-deleted username still counts as taken.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByIDIncludingDeleted also matches soft-deleted accounts. Used by
	// the restore flow.
	FindByIDIncludingDeleted(ctx context.Context, id string) (*domain.Account, error)
	Save(ctx context.Context, account *domain.Account) error
}

// RoleGrantRepository manages the external role-grant records attached to an
// account. Replace is a set replacement: all prior grants are removed and
// exactly the given role remains.
type RoleGrantRepository interface {
	Replace(ctx context.Context, accountID string, role domain.Role) error
}
