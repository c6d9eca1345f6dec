package events

import (
	"time"

	"github.com/google/uuid"
)

// Event source identifier for CloudEvents published by this service.
const SourceServicePass = "service-pass"

// Topics.
const (
	TopicPassEvents    = "pass.events"
	TopicPaymentEvents = "payment.events"
)

// Pass event types.
const (
	PassApplied   = "pass.applied"
	PassApproved  = "pass.approved"
	PassRejected  = "pass.rejected"
	PassActivated = "pass.activated"
	PassExpired   = "pass.expired"
	PassRenewed   = "pass.renewed"
)

// Renewal event types. Renewal decisions carry their own types so
// consumers filtering by type never confuse them with pass decisions.
const (
	RenewalRequested = "renewal.requested"
	RenewalApproved  = "renewal.approved"
	RenewalRejected  = "renewal.rejected"
)

// Payment event types.
const (
	PaymentOrderCreated = "payment.order_created"
	PaymentVerified     = "payment.verified"
)

// PassAppliedEvent is published when a rider submits a new application.
type PassAppliedEvent struct {
	PassID     uuid.UUID `json:"pass_id"`
	PassNumber string    `json:"pass_number"`
	RiderID    uuid.UUID `json:"rider_id"`
	Fare       int64     `json:"fare"`
	Currency   string    `json:"currency"`
}

// PassDecidedEvent is published on admin approval or rejection.
type PassDecidedEvent struct {
	PassID  uuid.UUID `json:"pass_id"`
	RiderID uuid.UUID `json:"rider_id"`
	Status  string    `json:"status"`
	Note    string    `json:"note,omitempty"`
	// Renewal is set when the decision concerns a renewal request
	// rather than a new application.
	RenewalID *uuid.UUID `json:"renewal_id,omitempty"`
}

// RenewalRequestedEvent is published when a rider submits a renewal request.
type RenewalRequestedEvent struct {
	RenewalID    uuid.UUID `json:"renewal_id"`
	PassID       uuid.UUID `json:"pass_id"`
	RiderID      uuid.UUID `json:"rider_id"`
	RouteChanged bool      `json:"route_changed"`
	Fare         int64     `json:"fare"`
	Currency     string    `json:"currency"`
}

// PassActivatedEvent is published once a verified payment activates a pass.
type PassActivatedEvent struct {
	PassID     uuid.UUID `json:"pass_id"`
	RiderID    uuid.UUID `json:"rider_id"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
}

// PassExpiredEvent is published when the expiry sweep retires a pass.
type PassExpiredEvent struct {
	PassID     uuid.UUID `json:"pass_id"`
	RiderID    uuid.UUID `json:"rider_id"`
	ValidUntil time.Time `json:"valid_until"`
}

// PassRenewedEvent is published when a paid renewal extends a pass.
type PassRenewedEvent struct {
	PassID       uuid.UUID `json:"pass_id"`
	RenewalID    uuid.UUID `json:"renewal_id"`
	RiderID      uuid.UUID `json:"rider_id"`
	RouteChanged bool      `json:"route_changed"`
	ValidUntil   time.Time `json:"valid_until"`
}

// PaymentOrderCreatedEvent is published when a gateway order is created.
type PaymentOrderCreatedEvent struct {
	OrderID   string     `json:"order_id"`
	PassID    *uuid.UUID `json:"pass_id,omitempty"`
	RenewalID *uuid.UUID `json:"renewal_id,omitempty"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
}

// PaymentVerifiedEvent is published when a checkout signature verifies.
// The pass consumer reacts to it by activating the pass or applying
// the renewal.
type PaymentVerifiedEvent struct {
	OrderID   string     `json:"order_id"`
	PaymentID string     `json:"payment_id"`
	PassID    *uuid.UUID `json:"pass_id,omitempty"`
	RenewalID *uuid.UUID `json:"renewal_id,omitempty"`
	PaidAt    time.Time  `json:"paid_at"`
}
