package pass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chennai-transit/service-pass/internal/domain/route"
)

func newTestRenewal(t *testing.T, target *Pass) *Renewal {
	t.Helper()
	r, err := NewRenewal(target, false, nil, route.DurationOneMonth, target.Fare(), time.Now().UTC())
	require.NoError(t, err)
	return r
}

func TestNewRenewalRequiresEligiblePass(t *testing.T) {
	now := time.Now().UTC()

	pending := newTestPass(t)
	_, err := NewRenewal(pending, false, nil, route.DurationOneMonth, 350, now)
	assert.Error(t, err)

	active := newActivePass(t)
	r, err := NewRenewal(active, false, nil, route.DurationOneMonth, 350, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status())
	assert.Equal(t, active.ID(), r.PassID())
	assert.Equal(t, active.RiderID(), r.RiderID())
}

func TestNewRenewalDiscardsStaleRouteWhenUnchanged(t *testing.T) {
	active := newActivePass(t)

	// A snapshot left over from an aborted route-change attempt must
	// not leak into an unchanged-route renewal.
	stale := testSnapshot()
	stale.BaseFare = 700

	r, err := NewRenewal(active, false, &stale, route.DurationOneMonth, active.Fare(), time.Now().UTC())
	require.NoError(t, err)

	assert.False(t, r.RouteChanged())
	assert.Nil(t, r.NewRoute())
	assert.Equal(t, active.Fare(), r.Fare())
}

func TestNewRenewalRouteChangeRequiresRoute(t *testing.T) {
	active := newActivePass(t)

	_, err := NewRenewal(active, true, nil, route.DurationOneMonth, 490, time.Now().UTC())
	assert.Error(t, err)

	snap := testSnapshot()
	snap.BaseFare = 700
	r, err := NewRenewal(active, true, &snap, route.DurationOneMonth, 490, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, r.RouteChanged())
	require.NotNil(t, r.NewRoute())
	assert.Equal(t, int64(700), r.NewRoute().BaseFare)
}

func TestRenewalDecisionIsTerminal(t *testing.T) {
	r := newTestRenewal(t, newActivePass(t))

	require.NoError(t, r.Approve("ok"))
	assert.Error(t, r.Approve("again"))
	assert.Error(t, r.Reject("no"))

	r2 := newTestRenewal(t, newActivePass(t))
	require.NoError(t, r2.Reject("route mismatch"))
	assert.False(t, r2.CanPay())
}

func TestRenewalApplyExtendsTargetPass(t *testing.T) {
	target := newActivePass(t)
	oldUntil := *target.ValidUntil()

	r := newTestRenewal(t, target)
	require.NoError(t, r.Approve(""))
	require.NoError(t, r.AttachPaymentOrder("order_456"))
	assert.True(t, r.CanPay())

	paidAt := time.Now().UTC()
	require.NoError(t, r.Apply(target, paidAt))

	assert.Equal(t, oldUntil.AddDate(0, 0, 30), *target.ValidUntil())
	assert.False(t, r.CanPay(), "settled renewal cannot pay again")
	assert.Error(t, r.Apply(target, paidAt))
}

func TestRenewalApplyKeepsStoredFareWhenRouteUnchanged(t *testing.T) {
	target := newActivePass(t)
	storedBase := target.RouteSnapshot().BaseFare

	r := newTestRenewal(t, target)
	require.NoError(t, r.Approve(""))
	require.NoError(t, r.Apply(target, time.Now().UTC()))

	assert.Equal(t, storedBase, target.RouteSnapshot().BaseFare, "fare basis unchanged without route change")
}

func TestRenewalApplyRejectsWrongPass(t *testing.T) {
	target := newActivePass(t)
	other := newActivePass(t)

	r := newTestRenewal(t, target)
	require.NoError(t, r.Approve(""))

	assert.Error(t, r.Apply(other, time.Now().UTC()))
	assert.Nil(t, r.PaidAt())
}

func TestRenewalApplyBeforeApprovalFails(t *testing.T) {
	target := newActivePass(t)
	r := newTestRenewal(t, target)

	assert.Error(t, r.Apply(target, time.Now().UTC()))
	assert.Equal(t, StatusPending, r.Status())
}
