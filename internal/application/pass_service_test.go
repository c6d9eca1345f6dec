package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	riderDomain "github.com/chennai-transit/service-pass/internal/domain/rider"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

type stubPassRepo struct {
	passDomain.PassRepository
	latest    *passDomain.Pass
	latestErr error
}

func (s *stubPassRepo) FindLatestByRiderID(ctx context.Context, riderID uuid.UUID) (*passDomain.Pass, error) {
	return s.latest, s.latestErr
}

type stubRiderRepo struct {
	riderDomain.RiderRepository
	rider *riderDomain.Rider
}

func (s *stubRiderRepo) FindByID(ctx context.Context, id uuid.UUID) (*riderDomain.Rider, error) {
	return s.rider, nil
}

func newApplyFixture(t *testing.T, latest *passDomain.Pass, latestErr error) *PassService {
	t.Helper()
	rd, err := riderDomain.NewRider("Asha Kumar", "asha@example.com", "password123", "+914412345678", route.CategoryGeneral)
	require.NoError(t, err)

	logger := zap.NewNop()
	routes := NewRouteService(nil, nil, route.NewFareSchedule(), logger)
	return NewPassService(
		&stubPassRepo{latest: latest, latestErr: latestErr},
		nil,
		&stubRiderRepo{rider: rd},
		routes,
		nil,
		nil,
		logger,
	)
}

func pendingPass(t *testing.T, riderID uuid.UUID) *passDomain.Pass {
	t.Helper()
	snapshot := passDomain.RouteSnapshot{
		StartLabel: "Thiruvanmiyur",
		EndLabel:   "Chennai Central",
		StartLat:   12.9830,
		StartLon:   80.2594,
		EndLat:     13.0827,
		EndLon:     80.2757,
		DistanceKm: 12.4,
		BaseFare:   500,
	}
	p, err := passDomain.NewPass(riderID, snapshot, route.CategoryGeneral, route.DurationOneMonth, 500, domain.CurrencyINR)
	require.NoError(t, err)
	return p
}

func TestApplyRejectsSecondApplicationWhilePending(t *testing.T) {
	riderID := uuid.New()
	svc := newApplyFixture(t, pendingPass(t, riderID), nil)

	_, err := svc.Apply(context.Background(), riderID, ApplyRequest{Duration: 1})

	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Contains(t, err.Error(), "already pending")
}

func TestApplyProceedsPastDecidedApplication(t *testing.T) {
	riderID := uuid.New()
	latest := pendingPass(t, riderID)
	require.NoError(t, latest.Approve("documents in order"))
	svc := newApplyFixture(t, latest, nil)

	// The guard lets a decided application through; with no route
	// selected the attempt then fails at quoting, not on the guard.
	_, err := svc.Apply(context.Background(), riderID, ApplyRequest{Duration: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, route.ErrNoRouteSelected)
}

func TestApplyProceedsWithNoPriorApplication(t *testing.T) {
	riderID := uuid.New()
	svc := newApplyFixture(t, nil, domain.NewNotFoundError("Pass", riderID.String()))

	_, err := svc.Apply(context.Background(), riderID, ApplyRequest{Duration: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, route.ErrNoRouteSelected)
}
