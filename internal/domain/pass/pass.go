package pass

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

const passNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// daysPerDurationUnit is the validity granted per duration month.
const daysPerDurationUnit = 30

// renewalGraceDays is how long after expiry a pass may still be renewed.
const renewalGraceDays = 30

// Pass is the aggregate root for a bus pass application and, once
// activated, the pass itself. One aggregate covers the whole journey:
// pending application, admin decision, payment, active validity, expiry.
type Pass struct {
	id         uuid.UUID
	passNumber string
	riderID    uuid.UUID
	status     Status

	routeSnapshot RouteSnapshot
	category      route.RiderCategory
	duration      route.DurationMonths
	fare          int64
	currency      string

	decidedAt    *time.Time
	decisionNote string

	paymentOrderID *string
	paidAt         *time.Time

	validFrom        *time.Time
	validUntil       *time.Time
	expiryNotifiedAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generatePassNumber creates a pass number in the format "BP-XXXXXX".
func generatePassNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate pass number: %w", err)
		}
		result[i] = passNumberChars[n.Int64()]
	}
	return "BP-" + string(result), nil
}

// NewPass creates a new Pass application with status=pending.
func NewPass(
	riderID uuid.UUID,
	routeSnapshot RouteSnapshot,
	category route.RiderCategory,
	duration route.DurationMonths,
	fare int64,
	currency string,
) (*Pass, error) {
	if riderID == uuid.Nil {
		return nil, domain.NewValidationError("rider ID is required")
	}
	if err := routeSnapshot.Validate(); err != nil {
		return nil, err
	}
	if _, err := route.ParseRiderCategory(string(category)); err != nil {
		return nil, err
	}
	if _, err := route.ParseDurationMonths(int(duration)); err != nil {
		return nil, err
	}
	if fare <= 0 {
		return nil, domain.NewValidationError("fare must be positive")
	}

	passNumber, err := generatePassNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Pass{
		id:            uuid.New(),
		passNumber:    passNumber,
		riderID:       riderID,
		status:        StatusPending,
		routeSnapshot: routeSnapshot,
		category:      category,
		duration:      duration,
		fare:          fare,
		currency:      currency,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructPass rebuilds a Pass from persistence data (no validation).
func ReconstructPass(
	id uuid.UUID,
	passNumber string,
	riderID uuid.UUID,
	status Status,
	routeSnapshot RouteSnapshot,
	category route.RiderCategory,
	duration route.DurationMonths,
	fare int64,
	currency string,
	decidedAt *time.Time,
	decisionNote string,
	paymentOrderID *string,
	paidAt *time.Time,
	validFrom *time.Time,
	validUntil *time.Time,
	expiryNotifiedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Pass {
	return &Pass{
		id:               id,
		passNumber:       passNumber,
		riderID:          riderID,
		status:           status,
		routeSnapshot:    routeSnapshot,
		category:         category,
		duration:         duration,
		fare:             fare,
		currency:         currency,
		decidedAt:        decidedAt,
		decisionNote:     decisionNote,
		paymentOrderID:   paymentOrderID,
		paidAt:           paidAt,
		validFrom:        validFrom,
		validUntil:       validUntil,
		expiryNotifiedAt: expiryNotifiedAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the pass's unique identifier.
func (p *Pass) ID() uuid.UUID { return p.id }

// PassNumber returns the human-readable pass number.
func (p *Pass) PassNumber() string { return p.passNumber }

// RiderID returns the owning rider's user ID.
func (p *Pass) RiderID() uuid.UUID { return p.riderID }

// Status returns the current pass status.
func (p *Pass) Status() Status { return p.status }

// RouteSnapshot returns the route copied at submission time.
func (p *Pass) RouteSnapshot() RouteSnapshot { return p.routeSnapshot }

// Category returns the rider concession category.
func (p *Pass) Category() route.RiderCategory { return p.category }

// Duration returns the pass duration in months.
func (p *Pass) Duration() route.DurationMonths { return p.duration }

// Fare returns the total payable fare in whole rupees.
func (p *Pass) Fare() int64 { return p.fare }

// Currency returns the currency code.
func (p *Pass) Currency() string { return p.currency }

// DecidedAt returns the time of the admin decision, or nil if pending.
func (p *Pass) DecidedAt() *time.Time { return p.decidedAt }

// DecisionNote returns the admin's decision note.
func (p *Pass) DecisionNote() string { return p.decisionNote }

// PaymentOrderID returns the gateway order ID, or nil if none created.
func (p *Pass) PaymentOrderID() *string { return p.paymentOrderID }

// PaidAt returns the time payment was verified, or nil if unpaid.
func (p *Pass) PaidAt() *time.Time { return p.paidAt }

// ValidFrom returns the start of the validity window, or nil if not active yet.
func (p *Pass) ValidFrom() *time.Time { return p.validFrom }

// ValidUntil returns the end of the validity window, or nil if not active yet.
func (p *Pass) ValidUntil() *time.Time { return p.validUntil }

// ExpiryNotifiedAt returns when the expiry mail was sent, or nil.
func (p *Pass) ExpiryNotifiedAt() *time.Time { return p.expiryNotifiedAt }

// Version returns the entity version for optimistic locking.
func (p *Pass) Version() int64 { return p.version }

// CreatedAt returns the creation timestamp.
func (p *Pass) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (p *Pass) UpdatedAt() time.Time { return p.updatedAt }

// --- Behavior ---

// Approve records an admin approval on a pending application.
func (p *Pass) Approve(note string) error {
	if !p.status.CanTransitionTo(StatusApproved) {
		return domain.NewInvalidStateError(string(p.status), string(StatusApproved))
	}
	now := time.Now().UTC()
	p.status = StatusApproved
	p.decidedAt = &now
	p.decisionNote = note
	p.updatedAt = now
	return nil
}

// Reject records an admin rejection on a pending application.
func (p *Pass) Reject(note string) error {
	if !p.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(p.status), string(StatusRejected))
	}
	now := time.Now().UTC()
	p.status = StatusRejected
	p.decidedAt = &now
	p.decisionNote = note
	p.updatedAt = now
	return nil
}

// CanPay is true iff the application is approved and no successful
// payment has been recorded yet.
func (p *Pass) CanPay() bool {
	return p.status == StatusApproved && p.paidAt == nil
}

// AttachPaymentOrder records the gateway order created for this pass.
// Creating a new order for an already-paid pass is an error; re-creating
// one for an unpaid pass replaces the previous order.
func (p *Pass) AttachPaymentOrder(orderID string) error {
	if !p.CanPay() {
		return domain.NewInvalidStateError(string(p.status), "payment")
	}
	if orderID == "" {
		return domain.NewValidationError("payment order ID is required")
	}
	p.paymentOrderID = &orderID
	p.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid records a verified payment and activates the pass: the
// validity window starts now and runs 30 days per duration month.
func (p *Pass) MarkPaid(paidAt time.Time) error {
	if !p.CanPay() {
		return domain.NewInvalidStateError(string(p.status), string(StatusActive))
	}
	if !p.status.CanTransitionTo(StatusActive) {
		return domain.NewInvalidStateError(string(p.status), string(StatusActive))
	}

	paidAt = paidAt.UTC()
	until := paidAt.AddDate(0, 0, int(p.duration)*daysPerDurationUnit)

	p.status = StatusActive
	p.paidAt = &paidAt
	p.validFrom = &paidAt
	p.validUntil = &until
	p.updatedAt = time.Now().UTC()
	return nil
}

// Expire retires an active pass whose validity window has elapsed.
func (p *Pass) Expire(now time.Time) error {
	if !p.status.CanTransitionTo(StatusExpired) {
		return domain.NewInvalidStateError(string(p.status), string(StatusExpired))
	}
	if p.validUntil == nil || now.Before(*p.validUntil) {
		return domain.NewInvalidStateError(string(p.status), string(StatusExpired))
	}
	p.status = StatusExpired
	p.updatedAt = time.Now().UTC()
	return nil
}

// MarkExpiryNotified records that the one-time expiry mail was sent.
func (p *Pass) MarkExpiryNotified(at time.Time) {
	at = at.UTC()
	p.expiryNotifiedAt = &at
	p.updatedAt = time.Now().UTC()
}

// RenewalEligible reports whether a renewal may be requested against
// this pass: it must be active, or expired no more than the grace
// period ago.
func (p *Pass) RenewalEligible(now time.Time) bool {
	switch p.status {
	case StatusActive:
		return true
	case StatusExpired:
		if p.validUntil == nil {
			return false
		}
		return now.Before(p.validUntil.AddDate(0, 0, renewalGraceDays))
	default:
		return false
	}
}

// ExtendValidity pushes the validity window out by the renewal's
// duration and adopts its fare basis. Extension runs from the current
// expiry when the pass is still valid, otherwise from now. An expired
// pass inside the grace window becomes active again.
func (p *Pass) ExtendValidity(duration route.DurationMonths, newSnapshot *RouteSnapshot, fare int64, now time.Time) error {
	if !p.RenewalEligible(now) {
		return domain.NewNotEligibleError("pass is not eligible for renewal")
	}

	now = now.UTC()
	from := now
	if p.validUntil != nil && p.validUntil.After(now) {
		from = *p.validUntil
	}
	until := from.AddDate(0, 0, int(duration)*daysPerDurationUnit)

	if newSnapshot != nil {
		p.routeSnapshot = *newSnapshot
	}
	p.fare = fare
	p.validUntil = &until
	p.expiryNotifiedAt = nil
	if p.status == StatusExpired {
		p.status = StatusActive
	}
	p.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Pass) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}
