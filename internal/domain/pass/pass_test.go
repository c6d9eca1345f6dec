package pass

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

func testSnapshot() RouteSnapshot {
	return RouteSnapshot{
		StartLabel: "Chennai Central",
		EndLabel:   "Guindy",
		StartLat:   13.0827,
		StartLon:   80.2707,
		EndLat:     12.9941,
		EndLon:     80.1709,
		DistanceKm: 14.6,
		BaseFare:   500,
	}
}

func newTestPass(t *testing.T) *Pass {
	t.Helper()
	p, err := NewPass(uuid.New(), testSnapshot(), route.CategoryElder, route.DurationOneMonth, 350, domain.CurrencyINR)
	require.NoError(t, err)
	return p
}

func newActivePass(t *testing.T) *Pass {
	t.Helper()
	p := newTestPass(t)
	require.NoError(t, p.Approve("verified"))
	require.NoError(t, p.MarkPaid(time.Now().UTC()))
	return p
}

func TestNewPassStartsPending(t *testing.T) {
	p := newTestPass(t)

	assert.Equal(t, StatusPending, p.Status())
	assert.Regexp(t, `^BP-[A-Z2-9]{6}$`, p.PassNumber())
	assert.Equal(t, int64(1), p.Version())
	assert.False(t, p.CanPay())
	assert.Nil(t, p.ValidUntil())
}

func TestNewPassValidation(t *testing.T) {
	snap := testSnapshot()

	_, err := NewPass(uuid.Nil, snap, route.CategoryGeneral, route.DurationOneMonth, 500, domain.CurrencyINR)
	assert.Error(t, err)

	bad := snap
	bad.BaseFare = 0
	_, err = NewPass(uuid.New(), bad, route.CategoryGeneral, route.DurationOneMonth, 500, domain.CurrencyINR)
	assert.Error(t, err)

	_, err = NewPass(uuid.New(), snap, route.RiderCategory("vip"), route.DurationOneMonth, 500, domain.CurrencyINR)
	assert.Error(t, err)

	_, err = NewPass(uuid.New(), snap, route.CategoryGeneral, route.DurationMonths(2), 500, domain.CurrencyINR)
	assert.Error(t, err)

	_, err = NewPass(uuid.New(), snap, route.CategoryGeneral, route.DurationOneMonth, 0, domain.CurrencyINR)
	assert.Error(t, err)
}

func TestApproveThenDecideAgainFails(t *testing.T) {
	p := newTestPass(t)

	require.NoError(t, p.Approve("documents in order"))
	assert.Equal(t, StatusApproved, p.Status())
	assert.NotNil(t, p.DecidedAt())

	assert.Error(t, p.Approve("again"))
	assert.Error(t, p.Reject("changed my mind"))
	assert.Equal(t, StatusApproved, p.Status())
}

func TestRejectIsTerminalForAdminAction(t *testing.T) {
	p := newTestPass(t)

	require.NoError(t, p.Reject("invalid ID proof"))
	assert.Equal(t, StatusRejected, p.Status())
	assert.True(t, p.Status().IsTerminal())

	assert.Error(t, p.Approve("oops"))
	assert.False(t, p.CanPay())
}

func TestCanPayLifecycle(t *testing.T) {
	p := newTestPass(t)
	assert.False(t, p.CanPay(), "pending application cannot pay")

	require.NoError(t, p.Approve(""))
	assert.True(t, p.CanPay())

	require.NoError(t, p.AttachPaymentOrder("order_123"))
	assert.True(t, p.CanPay(), "order creation does not settle payment")

	require.NoError(t, p.MarkPaid(time.Now().UTC()))
	assert.False(t, p.CanPay(), "canPay is permanently false after verified payment")
	assert.Error(t, p.MarkPaid(time.Now().UTC()))
}

func TestMarkPaidActivatesWithValidityWindow(t *testing.T) {
	p := newTestPass(t)
	require.NoError(t, p.Approve(""))

	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.MarkPaid(paidAt))

	assert.Equal(t, StatusActive, p.Status())
	require.NotNil(t, p.ValidFrom())
	require.NotNil(t, p.ValidUntil())
	assert.Equal(t, paidAt, *p.ValidFrom())
	assert.Equal(t, paidAt.AddDate(0, 0, 30), *p.ValidUntil())
}

func TestExpireOnlyAfterValidityElapses(t *testing.T) {
	p := newActivePass(t)

	assert.Error(t, p.Expire(p.ValidUntil().Add(-time.Hour)))
	assert.Equal(t, StatusActive, p.Status())

	require.NoError(t, p.Expire(p.ValidUntil().Add(time.Hour)))
	assert.Equal(t, StatusExpired, p.Status())
}

func TestRenewalEligibility(t *testing.T) {
	p := newActivePass(t)
	now := time.Now().UTC()

	assert.True(t, p.RenewalEligible(now), "active pass is renewable")

	require.NoError(t, p.Expire(p.ValidUntil().Add(time.Hour)))
	assert.True(t, p.RenewalEligible(p.ValidUntil().AddDate(0, 0, 10)), "inside grace window")
	assert.False(t, p.RenewalEligible(p.ValidUntil().AddDate(0, 0, 45)), "past grace window")

	pending := newTestPass(t)
	assert.False(t, pending.RenewalEligible(now), "pending application is not renewable")
}

func TestExtendValidityFromCurrentExpiry(t *testing.T) {
	p := newActivePass(t)
	oldUntil := *p.ValidUntil()

	require.NoError(t, p.ExtendValidity(route.DurationThreeMonths, nil, 1050, time.Now().UTC()))

	assert.Equal(t, oldUntil.AddDate(0, 0, 90), *p.ValidUntil())
	assert.Equal(t, int64(1050), p.Fare())
	assert.Equal(t, StatusActive, p.Status())
}

func TestExtendValidityReactivatesExpiredPassFromNow(t *testing.T) {
	p := newActivePass(t)
	require.NoError(t, p.Expire(p.ValidUntil().Add(time.Hour)))

	now := p.ValidUntil().AddDate(0, 0, 5)
	require.NoError(t, p.ExtendValidity(route.DurationOneMonth, nil, 350, now))

	assert.Equal(t, StatusActive, p.Status())
	assert.Equal(t, now.AddDate(0, 0, 30), *p.ValidUntil())
}

func TestExtendValidityAdoptsNewRoute(t *testing.T) {
	p := newActivePass(t)

	newSnap := testSnapshot()
	newSnap.EndLabel = "Tambaram"
	newSnap.DistanceKm = 24.0
	newSnap.BaseFare = 700

	require.NoError(t, p.ExtendValidity(route.DurationOneMonth, &newSnap, 490, time.Now().UTC()))

	assert.Equal(t, "Tambaram", p.RouteSnapshot().EndLabel)
	assert.Equal(t, int64(700), p.RouteSnapshot().BaseFare)
	assert.Equal(t, int64(490), p.Fare())
}

func TestStatusStateMachine(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.False(t, StatusPending.CanTransitionTo(StatusActive))
	assert.True(t, StatusApproved.CanTransitionTo(StatusActive))
	assert.False(t, StatusApproved.CanTransitionTo(StatusPending))
	assert.True(t, StatusActive.CanTransitionTo(StatusExpired))
	assert.True(t, StatusExpired.CanTransitionTo(StatusActive))
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())

	_, err := ParseStatus("pending")
	assert.NoError(t, err)
	_, err = ParseStatus("cancelled")
	assert.Error(t, err)
}
