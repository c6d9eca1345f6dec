package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	"github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/payment"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
)

// OrderDTO is the response representation of a created payment order,
// carrying what the checkout widget needs.
type OrderDTO struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// VerifyPaymentRequest holds the checkout callback fields.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// PaymentService orchestrates payment orders and verification for
// passes and renewals. Verification publishes a payment event; the
// event consumer performs the activation or extension so the flow is
// identical whether the trigger is this service or an external
// payment processor.
type PaymentService struct {
	gateway     payment.Gateway
	keyID       string
	passRepo    passDomain.PassRepository
	renewalRepo passDomain.RenewalRepository
	producer    *kafka.Producer
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	gateway payment.Gateway,
	keyID string,
	passRepo passDomain.PassRepository,
	renewalRepo passDomain.RenewalRepository,
	producer *kafka.Producer,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		keyID:       keyID,
		passRepo:    passRepo,
		renewalRepo: renewalRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreatePassOrder creates a gateway order for an approved, unpaid pass.
func (s *PaymentService) CreatePassOrder(ctx context.Context, riderID, passID uuid.UUID) (*OrderDTO, error) {
	p, err := s.passRepo.FindByID(ctx, passID)
	if err != nil {
		return nil, err
	}
	if p.RiderID() != riderID {
		return nil, domain.NewForbiddenError("pass does not belong to this rider")
	}
	if !p.CanPay() {
		return nil, domain.NewInvalidStateError(string(p.Status()), "payment")
	}

	order, err := s.gateway.CreateOrder(ctx, p.Fare(), p.Currency(), p.PassNumber())
	if err != nil {
		return nil, err
	}

	if err := p.AttachPaymentOrder(order.ID); err != nil {
		return nil, err
	}
	p.IncrementVersion()
	if err := s.passRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	passIDCopy := p.ID()
	evt := events.PaymentOrderCreatedEvent{
		OrderID:  order.ID,
		PassID:   &passIDCopy,
		Amount:   order.Amount,
		Currency: order.Currency,
	}
	s.publishEvent(ctx, events.PaymentOrderCreated, evt)

	return &OrderDTO{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.keyID,
	}, nil
}

// CreateRenewalOrder creates a gateway order for an approved, unpaid renewal.
func (s *PaymentService) CreateRenewalOrder(ctx context.Context, riderID, renewalID uuid.UUID) (*OrderDTO, error) {
	rn, err := s.renewalRepo.FindByID(ctx, renewalID)
	if err != nil {
		return nil, err
	}
	if rn.RiderID() != riderID {
		return nil, domain.NewForbiddenError("renewal does not belong to this rider")
	}
	if !rn.CanPay() {
		return nil, domain.NewInvalidStateError(string(rn.Status()), "payment")
	}

	order, err := s.gateway.CreateOrder(ctx, rn.Fare(), rn.Currency(), "RN-"+rn.ID().String()[:8])
	if err != nil {
		return nil, err
	}

	if err := rn.AttachPaymentOrder(order.ID); err != nil {
		return nil, err
	}
	rn.IncrementVersion()
	if err := s.renewalRepo.Update(ctx, rn); err != nil {
		return nil, err
	}

	renewalIDCopy := rn.ID()
	evt := events.PaymentOrderCreatedEvent{
		OrderID:   order.ID,
		RenewalID: &renewalIDCopy,
		Amount:    order.Amount,
		Currency:  order.Currency,
	}
	s.publishEvent(ctx, events.PaymentOrderCreated, evt)

	return &OrderDTO{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    s.keyID,
	}, nil
}

// VerifyPassPayment checks the checkout signature for a pass order. A
// signature mismatch is fatal to this attempt only: the pass stays
// approved and payable. On success a verified-payment event is
// published and the consumer activates the pass.
func (s *PaymentService) VerifyPassPayment(ctx context.Context, riderID, passID uuid.UUID, req VerifyPaymentRequest) error {
	p, err := s.passRepo.FindByID(ctx, passID)
	if err != nil {
		return err
	}
	if p.RiderID() != riderID {
		return domain.NewForbiddenError("pass does not belong to this rider")
	}
	if p.PaymentOrderID() == nil || *p.PaymentOrderID() != req.OrderID {
		return domain.NewValidationError("unknown payment order for this pass")
	}
	if !p.CanPay() {
		return domain.NewInvalidStateError(string(p.Status()), "payment")
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("payment signature mismatch",
			zap.String("pass_id", passID.String()),
			zap.String("order_id", req.OrderID),
		)
		return domain.NewValidationError("payment signature verification failed")
	}

	passIDCopy := p.ID()
	evt := events.PaymentVerifiedEvent{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		PassID:    &passIDCopy,
		PaidAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.PaymentVerified, evt)
	return nil
}

// VerifyRenewalPayment checks the checkout signature for a renewal order.
func (s *PaymentService) VerifyRenewalPayment(ctx context.Context, riderID, renewalID uuid.UUID, req VerifyPaymentRequest) error {
	rn, err := s.renewalRepo.FindByID(ctx, renewalID)
	if err != nil {
		return err
	}
	if rn.RiderID() != riderID {
		return domain.NewForbiddenError("renewal does not belong to this rider")
	}
	if rn.PaymentOrderID() == nil || *rn.PaymentOrderID() != req.OrderID {
		return domain.NewValidationError("unknown payment order for this renewal")
	}
	if !rn.CanPay() {
		return domain.NewInvalidStateError(string(rn.Status()), "payment")
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("payment signature mismatch",
			zap.String("renewal_id", renewalID.String()),
			zap.String("order_id", req.OrderID),
		)
		return domain.NewValidationError("payment signature verification failed")
	}

	renewalIDCopy := rn.ID()
	evt := events.PaymentVerifiedEvent{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		RenewalID: &renewalIDCopy,
		PaidAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.PaymentVerified, evt)
	return nil
}

func (s *PaymentService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.SourceServicePass, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicPaymentEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
