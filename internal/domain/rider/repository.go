package rider

import (
	"context"

	"github.com/google/uuid"
)

// RiderRepository defines persistence operations for rider accounts.
type RiderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Rider, error)
	FindByEmail(ctx context.Context, email string) (*Rider, error)
	Save(ctx context.Context, rider *Rider) error
	Update(ctx context.Context, rider *Rider) error
}
