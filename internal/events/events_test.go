package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
)

// Renewal decisions must be distinguishable from pass decisions by type
// alone; consumers filter on the type field, not the payload.
func TestRenewalEventTypesDistinctFromPassTypes(t *testing.T) {
	assert.Equal(t, "renewal.requested", RenewalRequested)
	assert.Equal(t, "renewal.approved", RenewalApproved)
	assert.Equal(t, "renewal.rejected", RenewalRejected)

	assert.NotEqual(t, PassApproved, RenewalApproved)
	assert.NotEqual(t, PassRejected, RenewalRejected)
	assert.NotEqual(t, PassApplied, RenewalRequested)
}

func TestRenewalRequestedEventThroughCloudEvent(t *testing.T) {
	evt := RenewalRequestedEvent{
		RenewalID:    uuid.New(),
		PassID:       uuid.New(),
		RiderID:      uuid.New(),
		RouteChanged: true,
		Fare:         360,
		Currency:     "INR",
	}

	ce, err := kafka.NewCloudEvent(SourceServicePass, RenewalRequested, evt)
	require.NoError(t, err)
	assert.Equal(t, RenewalRequested, ce.Type)

	var decoded RenewalRequestedEvent
	require.NoError(t, ce.ParseData(&decoded))
	assert.Equal(t, evt, decoded)
}
