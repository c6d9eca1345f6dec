package document

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository defines persistence operations for proof documents.
type DocumentRepository interface {
	Save(ctx context.Context, doc *ProofDocument) error
	FindByPassID(ctx context.Context, passID uuid.UUID) ([]*ProofDocument, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ProofDocument, error)
}
