package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	riderDomain "github.com/chennai-transit/service-pass/internal/domain/rider"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// RiderModel is the GORM model for the riders table.
type RiderModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null;size:120"`
	Email        string    `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `gorm:"not null;size:100"`
	Phone        string    `gorm:"size:20"`
	Category     string    `gorm:"not null;size:20"`
	Role         string    `gorm:"not null;size:20;default:'rider'"`
	Status       string    `gorm:"not null;size:20;default:'active'"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RiderModel) TableName() string {
	return "riders"
}

// GormRiderRepository is the GORM-based implementation of RiderRepository.
type GormRiderRepository struct {
	db *gorm.DB
}

// NewGormRiderRepository creates a new GormRiderRepository.
func NewGormRiderRepository(db *gorm.DB) *GormRiderRepository {
	return &GormRiderRepository{db: db}
}

// FindByID retrieves a rider by ID.
func (r *GormRiderRepository) FindByID(ctx context.Context, id uuid.UUID) (*riderDomain.Rider, error) {
	var model RiderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Rider", id.String())
		}
		return nil, fmt.Errorf("failed to find rider by ID: %w", err)
	}
	return toDomainRider(&model), nil
}

// FindByEmail retrieves a rider by email.
func (r *GormRiderRepository) FindByEmail(ctx context.Context, email string) (*riderDomain.Rider, error) {
	var model RiderModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Rider", email)
		}
		return nil, fmt.Errorf("failed to find rider by email: %w", err)
	}
	return toDomainRider(&model), nil
}

// Save persists a new rider.
func (r *GormRiderRepository) Save(ctx context.Context, rd *riderDomain.Rider) error {
	model := toRiderModel(rd)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save rider: %w", err)
	}
	return nil
}

// Update persists changes to an existing rider with optimistic locking.
func (r *GormRiderRepository) Update(ctx context.Context, rd *riderDomain.Rider) error {
	model := toRiderModel(rd)

	expectedVersion := rd.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RiderModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"phone":      model.Phone,
			"role":       model.Role,
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update rider: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("rider was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toRiderModel(rd *riderDomain.Rider) *RiderModel {
	return &RiderModel{
		ID:           rd.ID(),
		Name:         rd.Name(),
		Email:        rd.Email(),
		PasswordHash: rd.PasswordHash(),
		Phone:        rd.Phone(),
		Category:     string(rd.Category()),
		Role:         string(rd.Role()),
		Status:       string(rd.Status()),
		Version:      rd.Version(),
		CreatedAt:    rd.CreatedAt(),
		UpdatedAt:    rd.UpdatedAt(),
	}
}

func toDomainRider(m *RiderModel) *riderDomain.Rider {
	return riderDomain.Reconstruct(
		m.ID,
		m.Name,
		m.Email,
		m.PasswordHash,
		m.Phone,
		route.RiderCategory(m.Category),
		auth.Role(m.Role),
		riderDomain.RiderStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
