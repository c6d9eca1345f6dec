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

// RenewalModel is the GORM model for the renewals table.
type RenewalModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PassID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	RiderID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status         string          `gorm:"not null;size:30;index"`
	RouteChanged   bool            `gorm:"not null;default:false"`
	NewRoute       json.RawMessage `gorm:"type:jsonb"`
	DurationMonths int             `gorm:"not null"`
	Fare           int64           `gorm:"not null"`
	Currency       string          `gorm:"not null;size:3;default:'INR'"`
	DecidedAt      *time.Time      `gorm:""`
	DecisionNote   string          `gorm:"size:500"`
	PaymentOrderID *string         `gorm:"size:64;index"`
	PaidAt         *time.Time      `gorm:""`
	Version        int64           `gorm:"not null;default:1"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RenewalModel) TableName() string {
	return "renewals"
}

// GormRenewalRepository is the GORM-based implementation of RenewalRepository.
type GormRenewalRepository struct {
	db *gorm.DB
}

// NewGormRenewalRepository creates a new GormRenewalRepository.
func NewGormRenewalRepository(db *gorm.DB) *GormRenewalRepository {
	return &GormRenewalRepository{db: db}
}

// FindByID retrieves a renewal by its unique identifier.
func (r *GormRenewalRepository) FindByID(ctx context.Context, id uuid.UUID) (*passDomain.Renewal, error) {
	var model RenewalModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Renewal", id.String())
		}
		return nil, fmt.Errorf("failed to find renewal by ID: %w", err)
	}
	return toDomainRenewal(&model)
}

// FindByPassID retrieves renewals against a pass, newest first.
func (r *GormRenewalRepository) FindByPassID(ctx context.Context, passID uuid.UUID) ([]*passDomain.Renewal, error) {
	var models []RenewalModel
	if err := r.db.WithContext(ctx).
		Where("pass_id = ?", passID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find renewals by pass: %w", err)
	}

	renewals := make([]*passDomain.Renewal, len(models))
	for i, m := range models {
		rn, err := toDomainRenewal(&m)
		if err != nil {
			return nil, err
		}
		renewals[i] = rn
	}
	return renewals, nil
}

// FindLatestByRiderID retrieves the rider's most recent renewal, or nil.
func (r *GormRenewalRepository) FindLatestByRiderID(ctx context.Context, riderID uuid.UUID) (*passDomain.Renewal, error) {
	var model RenewalModel
	if err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest rider renewal: %w", err)
	}
	return toDomainRenewal(&model)
}

// FindPendingByPassID retrieves an undecided renewal for the pass, or nil.
func (r *GormRenewalRepository) FindPendingByPassID(ctx context.Context, passID uuid.UUID) (*passDomain.Renewal, error) {
	var model RenewalModel
	if err := r.db.WithContext(ctx).
		Where("pass_id = ? AND status = ?", passID, string(passDomain.StatusPending)).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending renewal: %w", err)
	}
	return toDomainRenewal(&model)
}

// FindByStatus retrieves renewals in the given status with pagination (admin).
func (r *GormRenewalRepository) FindByStatus(ctx context.Context, status passDomain.Status, page, limit int) ([]*passDomain.Renewal, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RenewalModel{}).Where("status = ?", string(status)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count renewals by status: %w", err)
	}

	var models []RenewalModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find renewals by status: %w", err)
	}

	renewals := make([]*passDomain.Renewal, len(models))
	for i, m := range models {
		rn, err := toDomainRenewal(&m)
		if err != nil {
			return nil, 0, err
		}
		renewals[i] = rn
	}

	return renewals, total, nil
}

// Save persists a new renewal.
func (r *GormRenewalRepository) Save(ctx context.Context, rn *passDomain.Renewal) error {
	model, err := toRenewalModel(rn)
	if err != nil {
		return fmt.Errorf("failed to convert renewal to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save renewal: %w", err)
	}
	return nil
}

// Update persists changes to an existing renewal with optimistic locking.
func (r *GormRenewalRepository) Update(ctx context.Context, rn *passDomain.Renewal) error {
	model, err := toRenewalModel(rn)
	if err != nil {
		return fmt.Errorf("failed to convert renewal to model: %w", err)
	}

	expectedVersion := rn.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RenewalModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"decided_at":       model.DecidedAt,
			"decision_note":    model.DecisionNote,
			"payment_order_id": model.PaymentOrderID,
			"paid_at":          model.PaidAt,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update renewal: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("renewal was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toRenewalModel(rn *passDomain.Renewal) (*RenewalModel, error) {
	var newRouteJSON json.RawMessage
	if rn.NewRoute() != nil {
		data, err := json.Marshal(rn.NewRoute())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal new route: %w", err)
		}
		newRouteJSON = data
	}

	return &RenewalModel{
		ID:             rn.ID(),
		PassID:         rn.PassID(),
		RiderID:        rn.RiderID(),
		Status:         string(rn.Status()),
		RouteChanged:   rn.RouteChanged(),
		NewRoute:       newRouteJSON,
		DurationMonths: int(rn.Duration()),
		Fare:           rn.Fare(),
		Currency:       rn.Currency(),
		DecidedAt:      rn.DecidedAt(),
		DecisionNote:   rn.DecisionNote(),
		PaymentOrderID: rn.PaymentOrderID(),
		PaidAt:         rn.PaidAt(),
		Version:        rn.Version(),
		CreatedAt:      rn.CreatedAt(),
		UpdatedAt:      rn.UpdatedAt(),
	}, nil
}

func toDomainRenewal(m *RenewalModel) (*passDomain.Renewal, error) {
	var newRoute *passDomain.RouteSnapshot
	if len(m.NewRoute) > 0 {
		var snap passDomain.RouteSnapshot
		if err := json.Unmarshal(m.NewRoute, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new route: %w", err)
		}
		newRoute = &snap
	}

	status, err := passDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return passDomain.ReconstructRenewal(
		m.ID,
		m.PassID,
		m.RiderID,
		status,
		m.RouteChanged,
		newRoute,
		route.DurationMonths(m.DurationMonths),
		m.Fare,
		m.Currency,
		m.DecidedAt,
		m.DecisionNote,
		m.PaymentOrderID,
		m.PaidAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
