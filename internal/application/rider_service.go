package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	riderDomain "github.com/chennai-transit/service-pass/internal/domain/rider"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// RegisterRequest holds the data to create a rider account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Category string `json:"category" binding:"required"`
}

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest holds the updatable profile fields.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RiderDTO is the response representation of a rider account.
type RiderDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Category  string    `json:"category"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPairDTO carries the issued tokens after login or registration.
type TokenPairDTO struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Rider        RiderDTO `json:"rider"`
}

// RiderService is the application service for rider accounts.
type RiderService struct {
	repo   riderDomain.RiderRepository
	tokens *auth.JWTManager
	logger *zap.Logger
}

// NewRiderService creates a new RiderService.
func NewRiderService(repo riderDomain.RiderRepository, tokens *auth.JWTManager, logger *zap.Logger) *RiderService {
	return &RiderService{repo: repo, tokens: tokens, logger: logger}
}

// Register creates a new rider account and issues tokens.
func (s *RiderService) Register(ctx context.Context, req RegisterRequest) (*TokenPairDTO, error) {
	category, err := route.ParseRiderCategory(req.Category)
	if err != nil {
		return nil, err
	}

	rd, err := riderDomain.NewRider(req.Name, req.Email, req.Password, req.Phone, category)
	if err != nil {
		return nil, err
	}

	if existing, ferr := s.repo.FindByEmail(ctx, rd.Email()); ferr == nil && existing != nil {
		return nil, domain.NewConflictError("an account with this email already exists")
	}

	if err := s.repo.Save(ctx, rd); err != nil {
		return nil, err
	}

	s.logger.Info("rider registered",
		zap.String("rider_id", rd.ID().String()),
		zap.String("category", string(rd.Category())),
	)
	return s.issueTokens(rd)
}

// Login verifies credentials and issues tokens.
func (s *RiderService) Login(ctx context.Context, req LoginRequest) (*TokenPairDTO, error) {
	rd, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Uniform error: do not reveal whether the account exists.
		return nil, domain.NewUnauthorizedError("invalid credentials")
	}
	if !rd.IsActive() {
		return nil, domain.NewUnauthorizedError("account is disabled")
	}
	if err := rd.CheckPassword(req.Password); err != nil {
		return nil, err
	}
	return s.issueTokens(rd)
}

// GetProfile returns the rider's own profile.
func (s *RiderService) GetProfile(ctx context.Context, riderID uuid.UUID) (*RiderDTO, error) {
	rd, err := s.repo.FindByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	dto := toRiderDTO(rd)
	return &dto, nil
}

// UpdateProfile applies partial profile updates.
func (s *RiderService) UpdateProfile(ctx context.Context, riderID uuid.UUID, req UpdateProfileRequest) (*RiderDTO, error) {
	rd, err := s.repo.FindByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	rd.Update(req.Name, req.Phone)
	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}

	dto := toRiderDTO(rd)
	return &dto, nil
}

// --- Helpers ---

func (s *RiderService) issueTokens(rd *riderDomain.Rider) (*TokenPairDTO, error) {
	access, err := s.tokens.GenerateAccessToken(rd.ID(), rd.Role())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(rd.ID(), rd.Role())
	if err != nil {
		return nil, err
	}
	return &TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		Rider:        toRiderDTO(rd),
	}, nil
}

func toRiderDTO(rd *riderDomain.Rider) RiderDTO {
	return RiderDTO{
		ID:        rd.ID(),
		Name:      rd.Name(),
		Email:     rd.Email(),
		Phone:     rd.Phone(),
		Category:  string(rd.Category()),
		Role:      string(rd.Role()),
		Status:    string(rd.Status()),
		CreatedAt: rd.CreatedAt(),
	}
}
