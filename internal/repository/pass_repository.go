package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// PassModel is the GORM model for the passes table.
type PassModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PassNumber       string          `gorm:"uniqueIndex;not null;size:20"`
	RiderID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status           string          `gorm:"not null;size:30;index"`
	RouteSnapshot    json.RawMessage `gorm:"type:jsonb;not null"`
	Category         string          `gorm:"not null;size:20"`
	DurationMonths   int             `gorm:"not null"`
	Fare             int64           `gorm:"not null"`
	Currency         string          `gorm:"not null;size:3;default:'INR'"`
	DecidedAt        *time.Time      `gorm:""`
	DecisionNote     string          `gorm:"size:500"`
	PaymentOrderID   *string         `gorm:"size:64;index"`
	PaidAt           *time.Time      `gorm:""`
	ValidFrom        *time.Time      `gorm:""`
	ValidUntil       *time.Time      `gorm:"index"`
	ExpiryNotifiedAt *time.Time      `gorm:""`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PassModel) TableName() string {
	return "passes"
}

// GormPassRepository is the GORM-based implementation of PassRepository.
type GormPassRepository struct {
	db *gorm.DB
}

// NewGormPassRepository creates a new GormPassRepository.
func NewGormPassRepository(db *gorm.DB) *GormPassRepository {
	return &GormPassRepository{db: db}
}

// FindByID retrieves a pass by its unique identifier.
func (r *GormPassRepository) FindByID(ctx context.Context, id uuid.UUID) (*passDomain.Pass, error) {
	var model PassModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pass", id.String())
		}
		return nil, fmt.Errorf("failed to find pass by ID: %w", err)
	}
	return toDomainPass(&model)
}

// FindByNumber retrieves a pass by its pass number.
func (r *GormPassRepository) FindByNumber(ctx context.Context, number string) (*passDomain.Pass, error) {
	var model PassModel
	if err := r.db.WithContext(ctx).Where("pass_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pass", number)
		}
		return nil, fmt.Errorf("failed to find pass by number: %w", err)
	}
	return toDomainPass(&model)
}

// FindByRiderID retrieves passes for a specific rider with pagination.
func (r *GormPassRepository) FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*passDomain.Pass, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PassModel{}).Where("rider_id = ?", riderID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rider passes: %w", err)
	}

	var models []PassModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find rider passes: %w", err)
	}

	passes := make([]*passDomain.Pass, len(models))
	for i, m := range models {
		p, err := toDomainPass(&m)
		if err != nil {
			return nil, 0, err
		}
		passes[i] = p
	}

	return passes, total, nil
}

// FindLatestByRiderID retrieves the rider's most recent non-rejected pass.
func (r *GormPassRepository) FindLatestByRiderID(ctx context.Context, riderID uuid.UUID) (*passDomain.Pass, error) {
	var model PassModel
	if err := r.db.WithContext(ctx).
		Where("rider_id = ? AND status <> ?", riderID, string(passDomain.StatusRejected)).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pass", riderID.String())
		}
		return nil, fmt.Errorf("failed to find latest rider pass: %w", err)
	}
	return toDomainPass(&model)
}

// FindByStatus retrieves passes in the given status with pagination (admin).
func (r *GormPassRepository) FindByStatus(ctx context.Context, status passDomain.Status, page, limit int) ([]*passDomain.Pass, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PassModel{}).Where("status = ?", string(status)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count passes by status: %w", err)
	}

	var models []PassModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find passes by status: %w", err)
	}

	passes := make([]*passDomain.Pass, len(models))
	for i, m := range models {
		p, err := toDomainPass(&m)
		if err != nil {
			return nil, 0, err
		}
		passes[i] = p
	}

	return passes, total, nil
}

// FindExpiredActive retrieves active passes whose validity elapsed before the cutoff.
func (r *GormPassRepository) FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]*passDomain.Pass, error) {
	var models []PassModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until <= ?", string(passDomain.StatusActive), cutoff).
		Order("valid_until ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired passes: %w", err)
	}

	passes := make([]*passDomain.Pass, len(models))
	for i, m := range models {
		p, err := toDomainPass(&m)
		if err != nil {
			return nil, err
		}
		passes[i] = p
	}
	return passes, nil
}

// ListAll retrieves all passes with pagination (admin).
func (r *GormPassRepository) ListAll(ctx context.Context, page, limit int) ([]*passDomain.Pass, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PassModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count passes: %w", err)
	}

	var models []PassModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list passes: %w", err)
	}

	passes := make([]*passDomain.Pass, len(models))
	for i, m := range models {
		p, err := toDomainPass(&m)
		if err != nil {
			return nil, 0, err
		}
		passes[i] = p
	}

	return passes, total, nil
}

// CountByStatus returns pass counts grouped by status (admin).
func (r *GormPassRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&PassModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new pass.
func (r *GormPassRepository) Save(ctx context.Context, p *passDomain.Pass) error {
	model, err := toPassModel(p)
	if err != nil {
		return fmt.Errorf("failed to convert pass to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save pass: %w", err)
	}
	return nil
}

// Update persists changes to an existing pass with optimistic locking.
func (r *GormPassRepository) Update(ctx context.Context, p *passDomain.Pass) error {
	model, err := toPassModel(p)
	if err != nil {
		return fmt.Errorf("failed to convert pass to model: %w", err)
	}

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := p.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&PassModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"route_snapshot":     model.RouteSnapshot,
			"fare":               model.Fare,
			"decided_at":         model.DecidedAt,
			"decision_note":      model.DecisionNote,
			"payment_order_id":   model.PaymentOrderID,
			"paid_at":            model.PaidAt,
			"valid_from":         model.ValidFrom,
			"valid_until":        model.ValidUntil,
			"expiry_notified_at": model.ExpiryNotifiedAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update pass: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("pass was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toPassModel(p *passDomain.Pass) (*PassModel, error) {
	snapshotJSON, err := json.Marshal(p.RouteSnapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route snapshot: %w", err)
	}

	return &PassModel{
		ID:               p.ID(),
		PassNumber:       p.PassNumber(),
		RiderID:          p.RiderID(),
		Status:           string(p.Status()),
		RouteSnapshot:    snapshotJSON,
		Category:         string(p.Category()),
		DurationMonths:   int(p.Duration()),
		Fare:             p.Fare(),
		Currency:         p.Currency(),
		DecidedAt:        p.DecidedAt(),
		DecisionNote:     p.DecisionNote(),
		PaymentOrderID:   p.PaymentOrderID(),
		PaidAt:           p.PaidAt(),
		ValidFrom:        p.ValidFrom(),
		ValidUntil:       p.ValidUntil(),
		ExpiryNotifiedAt: p.ExpiryNotifiedAt(),
		Version:          p.Version(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}, nil
}

func toDomainPass(m *PassModel) (*passDomain.Pass, error) {
	var snapshot passDomain.RouteSnapshot
	if err := json.Unmarshal(m.RouteSnapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route snapshot: %w", err)
	}

	status, err := passDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return passDomain.ReconstructPass(
		m.ID,
		m.PassNumber,
		m.RiderID,
		status,
		snapshot,
		route.RiderCategory(m.Category),
		route.DurationMonths(m.DurationMonths),
		m.Fare,
		m.Currency,
		m.DecidedAt,
		m.DecisionNote,
		m.PaymentOrderID,
		m.PaidAt,
		m.ValidFrom,
		m.ValidUntil,
		m.ExpiryNotifiedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
