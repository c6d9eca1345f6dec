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

// ApplyRequest holds the data needed to submit a new pass application.
// The route itself comes from the rider's current selection.
type ApplyRequest struct {
	Duration int `json:"duration_months" binding:"required"`
}

// PassDTO is the response representation of a pass.
type PassDTO struct {
	ID             uuid.UUID                `json:"id"`
	PassNumber     string                   `json:"pass_number"`
	RiderID        uuid.UUID                `json:"rider_id"`
	Status         string                   `json:"status"`
	Route          passDomain.RouteSnapshot `json:"route"`
	Category       string                   `json:"category"`
	DurationMonths int                      `json:"duration_months"`
	Fare           int64                    `json:"fare"`
	Currency       string                   `json:"currency"`
	CanPay         bool                     `json:"can_pay"`
	DecidedAt      *time.Time               `json:"decided_at,omitempty"`
	DecisionNote   string                   `json:"decision_note,omitempty"`
	PaymentOrderID *string                  `json:"payment_order_id,omitempty"`
	PaidAt         *time.Time               `json:"paid_at,omitempty"`
	ValidFrom      *time.Time               `json:"valid_from,omitempty"`
	ValidUntil     *time.Time               `json:"valid_until,omitempty"`
	Version        int64                    `json:"version"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// StatusProjectionDTO is the read model for the rider's "my pass"
// view: the latest renewal takes precedence over the pass it extends,
// and rejected applications do not block a fresh one.
type StatusProjectionDTO struct {
	Kind   string   `json:"kind"` // new_pass | renewal
	Status string   `json:"status"`
	CanPay bool     `json:"can_pay"`
	Pass   *PassDTO `json:"pass,omitempty"`
	// RenewalID is set when the projection reflects a renewal request.
	RenewalID *uuid.UUID `json:"renewal_id,omitempty"`
	Fare      int64      `json:"fare"`
	// DaysLeft is the remaining validity of the underlying pass, when active.
	DaysLeft *int `json:"days_left,omitempty"`
}

// PassService is the application service orchestrating pass use cases.
type PassService struct {
	repo        passDomain.PassRepository
	renewalRepo passDomain.RenewalRepository
	riderRepo   riderDomain.RiderRepository
	routes      *RouteService
	producer    *kafka.Producer
	mailer      email.Mailer
	logger      *zap.Logger
}

// NewPassService creates a new PassService.
func NewPassService(
	repo passDomain.PassRepository,
	renewalRepo passDomain.RenewalRepository,
	riderRepo riderDomain.RiderRepository,
	routes *RouteService,
	producer *kafka.Producer,
	mailer email.Mailer,
	logger *zap.Logger,
) *PassService {
	return &PassService{
		repo:        repo,
		renewalRepo: renewalRepo,
		riderRepo:   riderRepo,
		routes:      routes,
		producer:    producer,
		mailer:      mailer,
		logger:      logger,
	}
}

// Apply submits a new pass application from the rider's current route
// selection. The selection is copied into an immutable snapshot; a
// later reset does not touch the submitted application.
func (s *PassService) Apply(ctx context.Context, riderID uuid.UUID, req ApplyRequest) (*PassDTO, error) {
	rd, err := s.riderRepo.FindByID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	// One application at a time: a pending application must be decided
	// before the rider can submit another.
	if latest, lerr := s.repo.FindLatestByRiderID(ctx, riderID); lerr == nil && latest.Status() == passDomain.StatusPending {
		return nil, domain.NewConflictError("an application is already pending for this rider")
	}

	duration, err := route.ParseDurationMonths(req.Duration)
	if err != nil {
		return nil, err
	}

	quote, err := s.routes.Quote(riderID, QuoteRequest{
		Category: string(rd.Category()),
		Duration: int(duration),
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := s.routes.Snapshot(riderID)
	if err != nil {
		return nil, err
	}

	p, err := passDomain.NewPass(riderID, snapshot, rd.Category(), duration, quote.TotalFare, domain.CurrencyINR)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save pass: %w", err)
	}

	evt := events.PassAppliedEvent{
		PassID:     p.ID(),
		PassNumber: p.PassNumber(),
		RiderID:    riderID,
		Fare:       p.Fare(),
		Currency:   p.Currency(),
	}
	s.publishEvent(ctx, events.TopicPassEvents, events.PassApplied, evt)

	result := toPassDTO(p)
	return &result, nil
}

// Approve records an admin approval on a pending application.
func (s *PassService) Approve(ctx context.Context, passID uuid.UUID, note string) (*PassDTO, error) {
	return s.decide(ctx, passID, note, true)
}

// Reject records an admin rejection on a pending application.
func (s *PassService) Reject(ctx context.Context, passID uuid.UUID, note string) (*PassDTO, error) {
	return s.decide(ctx, passID, note, false)
}

func (s *PassService) decide(ctx context.Context, passID uuid.UUID, note string, approve bool) (*PassDTO, error) {
	p, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	if approve {
		err = p.Approve(note)
	} else {
		err = p.Reject(note)
	}
	if err != nil {
		return nil, err
	}

	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	eventType := events.PassApproved
	if !approve {
		eventType = events.PassRejected
	}
	evt := events.PassDecidedEvent{
		PassID:  p.ID(),
		RiderID: p.RiderID(),
		Status:  string(p.Status()),
		Note:    note,
	}
	s.publishEvent(ctx, events.TopicPassEvents, eventType, evt)

	s.notifyDecision(ctx, p, note)

	result := toPassDTO(p)
	return &result, nil
}

// ActivateOnPayment activates a pass after its payment is verified.
// Invoked by the payment event consumer.
func (s *PassService) ActivateOnPayment(ctx context.Context, passID uuid.UUID, paidAt time.Time) (*PassDTO, error) {
	p, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	if err := p.MarkPaid(paidAt); err != nil {
		return nil, err
	}

	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	evt := events.PassActivatedEvent{
		PassID:     p.ID(),
		RiderID:    p.RiderID(),
		ValidFrom:  *p.ValidFrom(),
		ValidUntil: *p.ValidUntil(),
	}
	s.publishEvent(ctx, events.TopicPassEvents, events.PassActivated, evt)

	if rd, rerr := s.riderRepo.FindByID(ctx, p.RiderID()); rerr == nil {
		if merr := s.mailer.SendActivation(rd.Email(), rd.Name(), p.PassNumber(), *p.ValidUntil()); merr != nil {
			s.logger.Warn("failed to send activation mail", zap.Error(merr))
		}
	}

	result := toPassDTO(p)
	return &result, nil
}

// GetPass retrieves a single pass, restricted to its owner.
func (s *PassService) GetPass(ctx context.Context, riderID, passID uuid.UUID) (*PassDTO, error) {
	p, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p.RiderID() != riderID {
		return nil, domain.NewForbiddenError("pass does not belong to this rider")
	}
	result := toPassDTO(p)
	return &result, nil
}

// GetRiderPasses retrieves paginated passes for a rider.
func (s *PassService) GetRiderPasses(ctx context.Context, riderID uuid.UUID, page, limit int) (*domain.PaginatedResult[PassDTO], error) {
	passes, total, err := s.repo.FindByRiderID(ctx, riderID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]PassDTO, len(passes))
	for i, p := range passes {
		dtos[i] = toPassDTO(p)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetStatusProjection returns the rider's current application status.
// A pending or settled renewal shadows the underlying pass; a rejected
// pass is treated as absent so the rider can reapply.
func (s *PassService) GetStatusProjection(ctx context.Context, riderID uuid.UUID) (*StatusProjectionDTO, error) {
	p, err := s.repo.FindLatestByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	dto := toPassDTO(p)

	renewal, err := s.renewalRepo.FindLatestByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if renewal != nil && renewal.PassID() == p.ID() && renewal.Status() != passDomain.StatusRejected {
		renewalID := renewal.ID()
		return &StatusProjectionDTO{
			Kind:      "renewal",
			Status:    string(renewal.Status()),
			CanPay:    renewal.CanPay(),
			Pass:      &dto,
			RenewalID: &renewalID,
			Fare:      renewal.Fare(),
			DaysLeft:  daysLeft(p),
		}, nil
	}

	return &StatusProjectionDTO{
		Kind:     "new_pass",
		Status:   string(p.Status()),
		CanPay:   p.CanPay(),
		Pass:     &dto,
		Fare:     p.Fare(),
		DaysLeft: daysLeft(p),
	}, nil
}

// daysLeft returns the whole days of validity remaining on an active pass.
func daysLeft(p *passDomain.Pass) *int {
	if p.Status() != passDomain.StatusActive || p.ValidUntil() == nil {
		return nil
	}
	d := int(time.Until(*p.ValidUntil()).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return &d
}

// --- Admin methods ---

// PassStatsDTO holds pass statistics for the admin dashboard.
type PassStatsDTO struct {
	TotalPasses int64            `json:"total_passes"`
	ByStatus    map[string]int64 `json:"by_status"`
}

// ListAllPasses returns a paginated list of all passes (admin).
func (s *PassService) ListAllPasses(ctx context.Context, page, limit int) ([]PassDTO, int64, error) {
	passes, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list passes: %w", err)
	}

	dtos := make([]PassDTO, len(passes))
	for i, p := range passes {
		dtos[i] = toPassDTO(p)
	}
	return dtos, total, nil
}

// ListPassesByStatus returns passes in a given status (admin).
func (s *PassService) ListPassesByStatus(ctx context.Context, status passDomain.Status, page, limit int) ([]PassDTO, int64, error) {
	passes, total, err := s.repo.FindByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list passes by status: %w", err)
	}

	dtos := make([]PassDTO, len(passes))
	for i, p := range passes {
		dtos[i] = toPassDTO(p)
	}
	return dtos, total, nil
}

// GetPassStats returns aggregate pass statistics (admin).
func (s *PassService) GetPassStats(ctx context.Context) (*PassStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pass stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &PassStatsDTO{
		TotalPasses: total,
		ByStatus:    counts,
	}, nil
}

// --- Helpers ---

func toPassDTO(p *passDomain.Pass) PassDTO {
	return PassDTO{
		ID:             p.ID(),
		PassNumber:     p.PassNumber(),
		RiderID:        p.RiderID(),
		Status:         string(p.Status()),
		Route:          p.RouteSnapshot(),
		Category:       string(p.Category()),
		DurationMonths: int(p.Duration()),
		Fare:           p.Fare(),
		Currency:       p.Currency(),
		CanPay:         p.CanPay(),
		DecidedAt:      p.DecidedAt(),
		DecisionNote:   p.DecisionNote(),
		PaymentOrderID: p.PaymentOrderID(),
		PaidAt:         p.PaidAt(),
		ValidFrom:      p.ValidFrom(),
		ValidUntil:     p.ValidUntil(),
		Version:        p.Version(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func (s *PassService) notifyDecision(ctx context.Context, p *passDomain.Pass, note string) {
	rd, err := s.riderRepo.FindByID(ctx, p.RiderID())
	if err != nil {
		s.logger.Warn("failed to load rider for decision mail", zap.Error(err))
		return
	}
	if err := s.mailer.SendDecision(rd.Email(), rd.Name(), p.PassNumber(), string(p.Status()), note); err != nil {
		s.logger.Warn("failed to send decision mail", zap.Error(err))
	}
}

func (s *PassService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
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
