package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	riderDomain "github.com/chennai-transit/service-pass/internal/domain/rider"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/email"
	"github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
)

// RequestRenewalRequest holds the data for a renewal request. When
// RouteChanged is true the rider's current route selection replaces
// the pass route; otherwise the stored route and fare basis are kept.
type RequestRenewalRequest struct {
	Duration     int  `json:"duration_months" binding:"required"`
	RouteChanged bool `json:"route_changed"`
}

// RenewalDTO is the response representation of a renewal request.
type RenewalDTO struct {
	ID             uuid.UUID                 `json:"id"`
	PassID         uuid.UUID                 `json:"pass_id"`
	RiderID        uuid.UUID                 `json:"rider_id"`
	Status         string                    `json:"status"`
	RouteChanged   bool                      `json:"route_changed"`
	NewRoute       *passDomain.RouteSnapshot `json:"new_route,omitempty"`
	DurationMonths int                       `json:"duration_months"`
	Fare           int64                     `json:"fare"`
	Currency       string                    `json:"currency"`
	CanPay         bool                      `json:"can_pay"`
	DecidedAt      *time.Time                `json:"decided_at,omitempty"`
	DecisionNote   string                    `json:"decision_note,omitempty"`
	PaidAt         *time.Time                `json:"paid_at,omitempty"`
	Version        int64                     `json:"version"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// RenewalService is the application service orchestrating renewal use cases.
type RenewalService struct {
	repo      passDomain.RenewalRepository
	passRepo  passDomain.PassRepository
	riderRepo riderDomain.RiderRepository
	routes    *RouteService
	schedule  *route.FareSchedule
	producer  *kafka.Producer
	mailer    email.Mailer
	logger    *zap.Logger
}

// NewRenewalService creates a new RenewalService.
func NewRenewalService(
	repo passDomain.RenewalRepository,
	passRepo passDomain.PassRepository,
	riderRepo riderDomain.RiderRepository,
	routes *RouteService,
	schedule *route.FareSchedule,
	producer *kafka.Producer,
	mailer email.Mailer,
	logger *zap.Logger,
) *RenewalService {
	return &RenewalService{
		repo:      repo,
		passRepo:  passRepo,
		riderRepo: riderRepo,
		routes:    routes,
		schedule:  schedule,
		producer:  producer,
		mailer:    mailer,
		logger:    logger,
	}
}

// Request submits a renewal against the rider's latest pass. Outside
// the renewal window the request fails with a not-eligible error; a
// second pending renewal for the same pass is a conflict.
func (s *RenewalService) Request(ctx context.Context, riderID uuid.UUID, req RequestRenewalRequest) (*RenewalDTO, error) {
	rd, err := s.riderRepo.FindByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	duration, err := route.ParseDurationMonths(req.Duration)
	if err != nil {
		return nil, err
	}

	target, err := s.passRepo.FindLatestByRiderID(ctx, riderID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.NewNotEligibleError("no pass to renew")
		}
		return nil, err
	}

	pending, err := s.repo.FindPendingByPassID(ctx, target.ID())
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domain.NewConflictError("a renewal request is already pending for this pass")
	}

	var newRoute *passDomain.RouteSnapshot
	baseFare := target.RouteSnapshot().BaseFare
	if req.RouteChanged {
		snap, serr := s.routes.Snapshot(riderID)
		if serr != nil {
			return nil, serr
		}
		newRoute = &snap
		baseFare = snap.BaseFare
	}

	// Fare basis: the new route's base fare when changing, otherwise
	// the stored pass fare, with the rider's concession reapplied.
	discounted, err := s.schedule.ApplyCategoryDiscount(baseFare, rd.Category())
	if err != nil {
		return nil, err
	}
	fare, err := s.schedule.ApplyDuration(discounted, duration)
	if err != nil {
		return nil, err
	}

	rn, err := passDomain.NewRenewal(target, req.RouteChanged, newRoute, duration, fare, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, rn); err != nil {
		return nil, fmt.Errorf("failed to save renewal: %w", err)
	}

	evt := events.RenewalRequestedEvent{
		RenewalID:    rn.ID(),
		PassID:       target.ID(),
		RiderID:      riderID,
		RouteChanged: rn.RouteChanged(),
		Fare:         rn.Fare(),
		Currency:     rn.Currency(),
	}
	s.publishEvent(ctx, events.TopicPassEvents, events.RenewalRequested, evt)

	s.logger.Info("renewal requested",
		zap.String("renewal_id", rn.ID().String()),
		zap.String("pass_id", target.ID().String()),
		zap.Bool("route_changed", req.RouteChanged),
		zap.Int64("fare", fare),
	)

	result := toRenewalDTO(rn)
	return &result, nil
}

// Approve records an admin approval on a pending renewal.
func (s *RenewalService) Approve(ctx context.Context, renewalID uuid.UUID, note string) (*RenewalDTO, error) {
	return s.decide(ctx, renewalID, note, true)
}

// Reject records an admin rejection on a pending renewal.
func (s *RenewalService) Reject(ctx context.Context, renewalID uuid.UUID, note string) (*RenewalDTO, error) {
	return s.decide(ctx, renewalID, note, false)
}

func (s *RenewalService) decide(ctx context.Context, renewalID uuid.UUID, note string, approve bool) (*RenewalDTO, error) {
	rn, err := s.repo.FindByID(ctx, renewalID)
	if err != nil {
		return nil, err
	}

	if approve {
		err = rn.Approve(note)
	} else {
		err = rn.Reject(note)
	}
	if err != nil {
		return nil, err
	}

	rn.IncrementVersion()
	if err := s.repo.Update(ctx, rn); err != nil {
		return nil, err
	}

	eventType := events.RenewalApproved
	if !approve {
		eventType = events.RenewalRejected
	}
	renewalIDCopy := rn.ID()
	evt := events.PassDecidedEvent{
		PassID:    rn.PassID(),
		RiderID:   rn.RiderID(),
		Status:    string(rn.Status()),
		Note:      note,
		RenewalID: &renewalIDCopy,
	}
	s.publishEvent(ctx, events.TopicPassEvents, eventType, evt)

	if p, perr := s.passRepo.FindByID(ctx, rn.PassID()); perr == nil {
		s.notifyDecision(ctx, p.PassNumber(), rn)
	}

	result := toRenewalDTO(rn)
	return &result, nil
}

// ApplyOnPayment settles a renewal after its payment is verified and
// extends the target pass. Invoked by the payment event consumer.
func (s *RenewalService) ApplyOnPayment(ctx context.Context, renewalID uuid.UUID, paidAt time.Time) (*RenewalDTO, error) {
	rn, err := s.repo.FindByID(ctx, renewalID)
	if err != nil {
		return nil, err
	}

	target, err := s.passRepo.FindByID(ctx, rn.PassID())
	if err != nil {
		return nil, err
	}

	if err := rn.Apply(target, paidAt); err != nil {
		return nil, err
	}

	rn.IncrementVersion()
	if err := s.repo.Update(ctx, rn); err != nil {
		return nil, err
	}

	target.IncrementVersion()
	if err := s.passRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	evt := events.PassRenewedEvent{
		PassID:       target.ID(),
		RenewalID:    rn.ID(),
		RiderID:      rn.RiderID(),
		RouteChanged: rn.RouteChanged(),
		ValidUntil:   *target.ValidUntil(),
	}
	s.publishEvent(ctx, events.TopicPassEvents, events.PassRenewed, evt)

	if rd, rerr := s.riderRepo.FindByID(ctx, rn.RiderID()); rerr == nil {
		if merr := s.mailer.SendActivation(rd.Email(), rd.Name(), target.PassNumber(), *target.ValidUntil()); merr != nil {
			s.logger.Warn("failed to send renewal mail", zap.Error(merr))
		}
	}

	result := toRenewalDTO(rn)
	return &result, nil
}

// GetRenewal retrieves a single renewal, restricted to its owner.
func (s *RenewalService) GetRenewal(ctx context.Context, riderID, renewalID uuid.UUID) (*RenewalDTO, error) {
	rn, err := s.repo.FindByID(ctx, renewalID)
	if err != nil {
		return nil, err
	}
	if rn.RiderID() != riderID {
		return nil, domain.NewForbiddenError("renewal does not belong to this rider")
	}
	result := toRenewalDTO(rn)
	return &result, nil
}

// ListRenewalsByStatus returns renewals in a given status (admin).
func (s *RenewalService) ListRenewalsByStatus(ctx context.Context, status passDomain.Status, page, limit int) ([]RenewalDTO, int64, error) {
	renewals, total, err := s.repo.FindByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list renewals: %w", err)
	}

	dtos := make([]RenewalDTO, len(renewals))
	for i, rn := range renewals {
		dtos[i] = toRenewalDTO(rn)
	}
	return dtos, total, nil
}

// --- Helpers ---

func toRenewalDTO(rn *passDomain.Renewal) RenewalDTO {
	return RenewalDTO{
		ID:             rn.ID(),
		PassID:         rn.PassID(),
		RiderID:        rn.RiderID(),
		Status:         string(rn.Status()),
		RouteChanged:   rn.RouteChanged(),
		NewRoute:       rn.NewRoute(),
		DurationMonths: int(rn.Duration()),
		Fare:           rn.Fare(),
		Currency:       rn.Currency(),
		CanPay:         rn.CanPay(),
		DecidedAt:      rn.DecidedAt(),
		DecisionNote:   rn.DecisionNote(),
		PaidAt:         rn.PaidAt(),
		Version:        rn.Version(),
		CreatedAt:      rn.CreatedAt(),
	}
}

func (s *RenewalService) notifyDecision(ctx context.Context, passNumber string, rn *passDomain.Renewal) {
	rd, err := s.riderRepo.FindByID(ctx, rn.RiderID())
	if err != nil {
		s.logger.Warn("failed to load rider for decision mail", zap.Error(err))
		return
	}
	if err := s.mailer.SendDecision(rd.Email(), rd.Name(), passNumber, string(rn.Status()), rn.DecisionNote()); err != nil {
		s.logger.Warn("failed to send decision mail", zap.Error(err))
	}
}

func (s *RenewalService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.SourceServicePass, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
