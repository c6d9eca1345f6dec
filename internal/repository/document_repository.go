package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	documentDomain "github.com/chennai-transit/service-pass/internal/domain/document"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// DocumentModel is the GORM model for the proof_documents table.
type DocumentModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PassID     uuid.UUID `gorm:"type:uuid;index;not null"`
	RiderID    uuid.UUID `gorm:"type:uuid;index;not null"`
	DocType    string    `gorm:"not null;size:30"`
	FileURL    string    `gorm:"not null;size:500"`
	Note       string    `gorm:"size:500"`
	UploadedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (DocumentModel) TableName() string {
	return "proof_documents"
}

// GormDocumentRepository is the GORM-based implementation of DocumentRepository.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository.
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Save persists a new proof document.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *documentDomain.ProofDocument) error {
	model := toDocumentModel(doc)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// FindByPassID retrieves all proof documents attached to a pass.
func (r *GormDocumentRepository) FindByPassID(ctx context.Context, passID uuid.UUID) ([]*documentDomain.ProofDocument, error) {
	var models []DocumentModel
	if err := r.db.WithContext(ctx).
		Where("pass_id = ?", passID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find documents by pass: %w", err)
	}

	docs := make([]*documentDomain.ProofDocument, len(models))
	for i, m := range models {
		docs[i] = toDomainDocument(&m)
	}
	return docs, nil
}

// FindByID retrieves a proof document by ID.
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*documentDomain.ProofDocument, error) {
	var model DocumentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Document", id.String())
		}
		return nil, fmt.Errorf("failed to find document by ID: %w", err)
	}
	return toDomainDocument(&model), nil
}

// --- Conversion Helpers ---

func toDocumentModel(doc *documentDomain.ProofDocument) *DocumentModel {
	return &DocumentModel{
		ID:         doc.ID(),
		PassID:     doc.PassID(),
		RiderID:    doc.RiderID(),
		DocType:    string(doc.DocType()),
		FileURL:    doc.FileURL(),
		Note:       doc.Note(),
		UploadedAt: doc.UploadedAt(),
		CreatedAt:  doc.CreatedAt(),
	}
}

func toDomainDocument(m *DocumentModel) *documentDomain.ProofDocument {
	return documentDomain.Reconstruct(
		m.ID,
		m.PassID,
		m.RiderID,
		documentDomain.DocumentType(m.DocType),
		m.FileURL,
		m.Note,
		m.UploadedAt,
		m.CreatedAt,
	)
}
