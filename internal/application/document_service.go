package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	documentDomain "github.com/chennai-transit/service-pass/internal/domain/document"
	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// UploadDocumentRequest holds the data to attach a proof document.
type UploadDocumentRequest struct {
	DocType string `json:"doc_type" binding:"required"`
	FileURL string `json:"file_url" binding:"required"`
	Note    string `json:"note"`
}

// DocumentDTO is the API response representation of a proof document.
type DocumentDTO struct {
	ID         uuid.UUID `json:"id"`
	PassID     uuid.UUID `json:"pass_id"`
	RiderID    uuid.UUID `json:"rider_id"`
	DocType    string    `json:"doc_type"`
	FileURL    string    `json:"file_url"`
	Note       string    `json:"note,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentService handles proof document use cases.
type DocumentService struct {
	repo     documentDomain.DocumentRepository
	passRepo passDomain.PassRepository
	logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(repo documentDomain.DocumentRepository, passRepo passDomain.PassRepository, logger *zap.Logger) *DocumentService {
	return &DocumentService{repo: repo, passRepo: passRepo, logger: logger}
}

// UploadDocument attaches a proof document to the rider's own pass.
func (s *DocumentService) UploadDocument(ctx context.Context, passID, riderID uuid.UUID, req UploadDocumentRequest) (*DocumentDTO, error) {
	p, err := s.passRepo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p.RiderID() != riderID {
		return nil, domain.NewForbiddenError("pass does not belong to this rider")
	}

	doc, err := documentDomain.NewProofDocument(
		passID,
		riderID,
		documentDomain.DocumentType(req.DocType),
		req.FileURL,
		req.Note,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("pass_id", passID.String()),
		zap.String("doc_type", req.DocType),
	)

	return toDocumentDTO(doc), nil
}

// GetPassDocuments returns all proof documents for a pass. Riders see
// only their own; admins pass allowAny.
func (s *DocumentService) GetPassDocuments(ctx context.Context, passID, riderID uuid.UUID, allowAny bool) ([]*DocumentDTO, error) {
	p, err := s.passRepo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if !allowAny && p.RiderID() != riderID {
		return nil, domain.NewForbiddenError("pass does not belong to this rider")
	}

	docs, err := s.repo.FindByPassID(ctx, passID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = toDocumentDTO(d)
	}
	return dtos, nil
}

func toDocumentDTO(d *documentDomain.ProofDocument) *DocumentDTO {
	return &DocumentDTO{
		ID:         d.ID(),
		PassID:     d.PassID(),
		RiderID:    d.RiderID(),
		DocType:    string(d.DocType()),
		FileURL:    d.FileURL(),
		Note:       d.Note(),
		UploadedAt: d.UploadedAt(),
		CreatedAt:  d.CreatedAt(),
	}
}
