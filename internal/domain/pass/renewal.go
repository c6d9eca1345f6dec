package pass

import (
	"time"

	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// Renewal is a pending extension request against an existing pass.
// Approval does not create a new pass; a verified payment extends the
// target pass's validity window and fare record.
type Renewal struct {
	id      uuid.UUID
	passID  uuid.UUID
	riderID uuid.UUID
	status  Status

	// routeChanged records whether the rider opted for a new route.
	// When false the stored pass fare basis is reused unmodified and
	// newRoute is nil; when true newRoute carries the replacement
	// snapshot whose base fare becomes the new fare basis.
	routeChanged bool
	newRoute     *RouteSnapshot

	duration route.DurationMonths
	fare     int64
	currency string

	decidedAt    *time.Time
	decisionNote string

	paymentOrderID *string
	paidAt         *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRenewal creates a renewal request against the given pass. It is
// only constructible while the pass is inside its renewal window.
func NewRenewal(
	target *Pass,
	routeChanged bool,
	newRoute *RouteSnapshot,
	duration route.DurationMonths,
	fare int64,
	now time.Time,
) (*Renewal, error) {
	if target == nil {
		return nil, domain.NewValidationError("target pass is required")
	}
	if !target.RenewalEligible(now) {
		return nil, domain.NewNotEligibleError("pass is not eligible for renewal")
	}
	if routeChanged {
		if newRoute == nil {
			return nil, domain.NewValidationError("new route is required when changing route")
		}
		if err := newRoute.Validate(); err != nil {
			return nil, err
		}
	} else if newRoute != nil {
		// A leftover snapshot from an aborted route change must never
		// leak into an unchanged-route renewal.
		newRoute = nil
	}
	if _, err := route.ParseDurationMonths(int(duration)); err != nil {
		return nil, err
	}
	if fare <= 0 {
		return nil, domain.NewValidationError("fare must be positive")
	}

	created := time.Now().UTC()
	return &Renewal{
		id:           uuid.New(),
		passID:       target.ID(),
		riderID:      target.RiderID(),
		status:       StatusPending,
		routeChanged: routeChanged,
		newRoute:     newRoute,
		duration:     duration,
		fare:         fare,
		currency:     target.Currency(),
		version:      1,
		createdAt:    created,
		updatedAt:    created,
	}, nil
}

// ReconstructRenewal rebuilds a Renewal from persistence data (no validation).
func ReconstructRenewal(
	id uuid.UUID,
	passID uuid.UUID,
	riderID uuid.UUID,
	status Status,
	routeChanged bool,
	newRoute *RouteSnapshot,
	duration route.DurationMonths,
	fare int64,
	currency string,
	decidedAt *time.Time,
	decisionNote string,
	paymentOrderID *string,
	paidAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Renewal {
	return &Renewal{
		id:             id,
		passID:         passID,
		riderID:        riderID,
		status:         status,
		routeChanged:   routeChanged,
		newRoute:       newRoute,
		duration:       duration,
		fare:           fare,
		currency:       currency,
		decidedAt:      decidedAt,
		decisionNote:   decisionNote,
		paymentOrderID: paymentOrderID,
		paidAt:         paidAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

// ID returns the renewal's unique identifier.
func (r *Renewal) ID() uuid.UUID { return r.id }

// PassID returns the target pass's identifier.
func (r *Renewal) PassID() uuid.UUID { return r.passID }

// RiderID returns the owning rider's user ID.
func (r *Renewal) RiderID() uuid.UUID { return r.riderID }

// Status returns the current renewal status.
func (r *Renewal) Status() Status { return r.status }

// RouteChanged reports whether this renewal switches the pass route.
func (r *Renewal) RouteChanged() bool { return r.routeChanged }

// NewRoute returns the replacement route snapshot, or nil when the
// existing route is kept.
func (r *Renewal) NewRoute() *RouteSnapshot { return r.newRoute }

// Duration returns the extension length in months.
func (r *Renewal) Duration() route.DurationMonths { return r.duration }

// Fare returns the payable renewal fare in whole rupees.
func (r *Renewal) Fare() int64 { return r.fare }

// Currency returns the currency code.
func (r *Renewal) Currency() string { return r.currency }

// DecidedAt returns the time of the admin decision, or nil if pending.
func (r *Renewal) DecidedAt() *time.Time { return r.decidedAt }

// DecisionNote returns the admin's decision note.
func (r *Renewal) DecisionNote() string { return r.decisionNote }

// PaymentOrderID returns the gateway order ID, or nil if none created.
func (r *Renewal) PaymentOrderID() *string { return r.paymentOrderID }

// PaidAt returns the time payment was verified, or nil if unpaid.
func (r *Renewal) PaidAt() *time.Time { return r.paidAt }

// Version returns the entity version for optimistic locking.
func (r *Renewal) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Renewal) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Renewal) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// Approve records an admin approval on a pending renewal.
func (r *Renewal) Approve(note string) error {
	if !r.status.CanTransitionTo(StatusApproved) {
		return domain.NewInvalidStateError(string(r.status), string(StatusApproved))
	}
	now := time.Now().UTC()
	r.status = StatusApproved
	r.decidedAt = &now
	r.decisionNote = note
	r.updatedAt = now
	return nil
}

// Reject records an admin rejection on a pending renewal.
func (r *Renewal) Reject(note string) error {
	if !r.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(r.status), string(StatusRejected))
	}
	now := time.Now().UTC()
	r.status = StatusRejected
	r.decidedAt = &now
	r.decisionNote = note
	r.updatedAt = now
	return nil
}

// CanPay is true iff the renewal is approved and unpaid.
func (r *Renewal) CanPay() bool {
	return r.status == StatusApproved && r.paidAt == nil
}

// AttachPaymentOrder records the gateway order created for this renewal.
func (r *Renewal) AttachPaymentOrder(orderID string) error {
	if !r.CanPay() {
		return domain.NewInvalidStateError(string(r.status), "payment")
	}
	if orderID == "" {
		return domain.NewValidationError("payment order ID is required")
	}
	r.paymentOrderID = &orderID
	r.updatedAt = time.Now().UTC()
	return nil
}

// Apply records a verified payment and extends the target pass. The
// renewal keeps status approved; paidAt marks it settled.
func (r *Renewal) Apply(target *Pass, paidAt time.Time) error {
	if !r.CanPay() {
		return domain.NewInvalidStateError(string(r.status), "settled")
	}
	if target == nil || target.ID() != r.passID {
		return domain.NewValidationError("renewal does not belong to this pass")
	}

	if err := target.ExtendValidity(r.duration, r.newRoute, r.fare, paidAt); err != nil {
		return err
	}

	paidAt = paidAt.UTC()
	r.paidAt = &paidAt
	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Renewal) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
