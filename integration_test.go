//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	passEvents "github.com/chennai-transit/service-pass/internal/events"
)

// TestPaymentVerified_ActivatesPass verifies that when a PaymentVerifiedEvent
// is published to payment.events, the pass service picks it up and
// transitions the approved pass to "active" with a validity window.
func TestPaymentVerified_ActivatesPass(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupPassStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a rider and an approved pass with a payment order attached.
	riderID := uuid.New()
	passID := uuid.New()
	orderID := "order_int_" + uuid.New().String()[:8]
	seedRider(t, infra.DB, riderID)
	seedApprovedPass(t, infra.DB, passID, riderID, orderID)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish PaymentVerifiedEvent.
	paidAt := time.Now().UTC().Truncate(time.Second)
	evt := passEvents.PaymentVerifiedEvent{
		OrderID:   orderID,
		PaymentID: "pay_int_" + uuid.New().String()[:8],
		PassID:    &passID,
		PaidAt:    paidAt,
	}
	publishTestEvent(t, infra.KafkaBrokers, passEvents.TopicPaymentEvents,
		passEvents.SourceServicePass, passEvents.PaymentVerified, evt)

	// Assert: pass transitions to "active" with a 30-day validity window.
	model := waitForPassStatus(t, infra.DB, passID, "active", 15*time.Second)
	require.NotNil(t, model.PaidAt, "paid_at should be set")
	require.NotNil(t, model.ValidFrom, "valid_from should be set")
	require.NotNil(t, model.ValidUntil, "valid_until should be set")
	assert.WithinDuration(t, paidAt, *model.ValidFrom, time.Second)
	assert.WithinDuration(t, paidAt.AddDate(0, 0, 30), *model.ValidUntil, time.Second)

	// Assert: PassActivatedEvent on pass.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, passEvents.TopicPassEvents,
		passEvents.PassActivated, 15*time.Second)

	var activated passEvents.PassActivatedEvent
	require.NoError(t, ce.ParseData(&activated))
	assert.Equal(t, passID, activated.PassID)
	assert.Equal(t, riderID, activated.RiderID)
	assert.WithinDuration(t, paidAt.AddDate(0, 0, 30), activated.ValidUntil, time.Second)
}
