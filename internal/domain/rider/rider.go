package rider

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// RiderStatus represents the lifecycle state of a rider account.
type RiderStatus string

const (
	RiderStatusActive   RiderStatus = "active"
	RiderStatusDisabled RiderStatus = "disabled"
)

// Rider is the aggregate root for a commuter account.
type Rider struct {
	id           uuid.UUID
	name         string
	email        string
	passwordHash string
	phone        string
	category     route.RiderCategory
	role         auth.Role
	status       RiderStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRider creates a new active rider account, hashing the password.
func NewRider(name, email, password, phone string, category route.RiderCategory) (*Rider, error) {
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("invalid email address")
	}
	if len(password) < 8 {
		return nil, domain.NewValidationError("password must be at least 8 characters")
	}
	if _, err := route.ParseRiderCategory(string(category)); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Rider{
		id:           uuid.New(),
		name:         name,
		email:        email,
		passwordHash: string(hash),
		phone:        phone,
		category:     category,
		role:         auth.RoleRider,
		status:       RiderStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Rider from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, email, passwordHash, phone string,
	category route.RiderCategory,
	role auth.Role,
	status RiderStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Rider {
	return &Rider{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		phone:        phone,
		category:     category,
		role:         role,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (r *Rider) ID() uuid.UUID                 { return r.id }
func (r *Rider) Name() string                  { return r.name }
func (r *Rider) Email() string                 { return r.email }
func (r *Rider) PasswordHash() string          { return r.passwordHash }
func (r *Rider) Phone() string                 { return r.phone }
func (r *Rider) Category() route.RiderCategory { return r.category }
func (r *Rider) Role() auth.Role               { return r.role }
func (r *Rider) Status() RiderStatus           { return r.status }
func (r *Rider) Version() int64                { return r.version }
func (r *Rider) CreatedAt() time.Time          { return r.createdAt }
func (r *Rider) UpdatedAt() time.Time          { return r.updatedAt }

// --- Behavior ---

// CheckPassword verifies a login attempt against the stored hash.
func (r *Rider) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(r.passwordHash), []byte(password)); err != nil {
		return domain.NewUnauthorizedError("invalid credentials")
	}
	return nil
}

// Update applies partial updates to the rider profile. The concession
// category is deliberately not updatable here: changing it affects
// fares and requires a fresh application with new proof documents.
func (r *Rider) Update(name, phone string) {
	if name != "" {
		r.name = name
	}
	if phone != "" {
		r.phone = phone
	}
	r.version++
	r.updatedAt = time.Now().UTC()
}

// PromoteToAdmin grants the admin role.
func (r *Rider) PromoteToAdmin() {
	r.role = auth.RoleAdmin
	r.version++
	r.updatedAt = time.Now().UTC()
}

// Disable marks the account as disabled.
func (r *Rider) Disable() {
	r.status = RiderStatusDisabled
	r.version++
	r.updatedAt = time.Now().UTC()
}

// IsActive returns true if the account is active.
func (r *Rider) IsActive() bool {
	return r.status == RiderStatusActive
}
