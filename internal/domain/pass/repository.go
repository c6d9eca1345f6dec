package pass

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PassRepository defines the persistence contract for pass aggregates.
type PassRepository interface {
	// FindByID retrieves a pass by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Pass, error)

	// FindByNumber retrieves a pass by its human-readable pass number.
	FindByNumber(ctx context.Context, number string) (*Pass, error)

	// FindByRiderID retrieves passes belonging to a specific rider with pagination.
	FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*Pass, int64, error)

	// FindLatestByRiderID retrieves the rider's most recent non-rejected pass.
	FindLatestByRiderID(ctx context.Context, riderID uuid.UUID) (*Pass, error)

	// FindByStatus retrieves passes in the given status with pagination (admin).
	FindByStatus(ctx context.Context, status Status, page, limit int) ([]*Pass, int64, error)

	// FindExpiredActive retrieves active passes whose validity elapsed before the cutoff.
	FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]*Pass, error)

	// ListAll retrieves all passes with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Pass, int64, error)

	// CountByStatus returns pass counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new pass.
	Save(ctx context.Context, pass *Pass) error

	// Update persists changes to an existing pass with optimistic locking.
	Update(ctx context.Context, pass *Pass) error
}

// RenewalRepository defines the persistence contract for renewal aggregates.
type RenewalRepository interface {
	// FindByID retrieves a renewal by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Renewal, error)

	// FindByPassID retrieves renewals against a pass, newest first.
	FindByPassID(ctx context.Context, passID uuid.UUID) ([]*Renewal, error)

	// FindLatestByRiderID retrieves the rider's most recent renewal, or nil.
	FindLatestByRiderID(ctx context.Context, riderID uuid.UUID) (*Renewal, error)

	// FindPendingByPassID retrieves an undecided renewal for the pass, or nil.
	FindPendingByPassID(ctx context.Context, passID uuid.UUID) (*Renewal, error)

	// FindByStatus retrieves renewals in the given status with pagination (admin).
	FindByStatus(ctx context.Context, status Status, page, limit int) ([]*Renewal, int64, error)

	// Save persists a new renewal.
	Save(ctx context.Context, renewal *Renewal) error

	// Update persists changes to an existing renewal with optimistic locking.
	Update(ctx context.Context, renewal *Renewal) error
}
