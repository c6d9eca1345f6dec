package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// DocumentType represents the kind of proof document attached to an
// application. Concession categories require supporting proof: age
// proof for elders, a student ID for students.
type DocumentType string

const (
	DocumentTypeIDProof   DocumentType = "id_proof"
	DocumentTypeAgeProof  DocumentType = "age_proof"
	DocumentTypeStudentID DocumentType = "student_id"
)

// IsValid returns true if the document type is recognized.
func (d DocumentType) IsValid() bool {
	return d == DocumentTypeIDProof || d == DocumentTypeAgeProof || d == DocumentTypeStudentID
}

// ProofDocument is the aggregate root for uploaded proof documents.
// Only metadata is stored here; the file itself lives in object
// storage at fileURL.
type ProofDocument struct {
	id         uuid.UUID
	passID     uuid.UUID
	riderID    uuid.UUID
	docType    DocumentType
	fileURL    string
	note       string
	uploadedAt time.Time
	createdAt  time.Time
}

// NewProofDocument creates a new proof document record.
func NewProofDocument(passID, riderID uuid.UUID, docType DocumentType, fileURL, note string) (*ProofDocument, error) {
	if !docType.IsValid() {
		return nil, domain.NewValidationError("invalid document type: " + string(docType))
	}
	if fileURL == "" {
		return nil, domain.NewValidationError("file URL is required")
	}

	now := time.Now().UTC()
	return &ProofDocument{
		id:         uuid.New(),
		passID:     passID,
		riderID:    riderID,
		docType:    docType,
		fileURL:    fileURL,
		note:       note,
		uploadedAt: now,
		createdAt:  now,
	}, nil
}

// Reconstruct rebuilds a ProofDocument from persistence.
func Reconstruct(id, passID, riderID uuid.UUID, docType DocumentType, fileURL, note string, uploadedAt, createdAt time.Time) *ProofDocument {
	return &ProofDocument{
		id:         id,
		passID:     passID,
		riderID:    riderID,
		docType:    docType,
		fileURL:    fileURL,
		note:       note,
		uploadedAt: uploadedAt,
		createdAt:  createdAt,
	}
}

// Getters.
func (d *ProofDocument) ID() uuid.UUID         { return d.id }
func (d *ProofDocument) PassID() uuid.UUID     { return d.passID }
func (d *ProofDocument) RiderID() uuid.UUID    { return d.riderID }
func (d *ProofDocument) DocType() DocumentType { return d.docType }
func (d *ProofDocument) FileURL() string       { return d.fileURL }
func (d *ProofDocument) Note() string          { return d.note }
func (d *ProofDocument) UploadedAt() time.Time { return d.uploadedAt }
func (d *ProofDocument) CreatedAt() time.Time  { return d.createdAt }
