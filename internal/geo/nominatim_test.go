package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

var chennaiBounds = route.Bounds{MinLat: 12.9, MinLon: 80.1, MaxLat: 13.3, MaxLon: 80.4}

func newTestResolver(t *testing.T, handler http.HandlerFunc) *NominatimResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNominatimResolver(srv.URL, "Chennai", chennaiBounds, zap.NewNop())
}

func TestResolveReturnsBestMatch(t *testing.T) {
	var gotQuery string
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		gotQuery = req.URL.Query().Get("q")
		assert.Equal(t, "1", req.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"13.0827","lon":"80.2707"}]`))
	})

	coord, err := r.Resolve(context.Background(), "Chennai Central")
	require.NoError(t, err)

	assert.Equal(t, "Chennai Central, Chennai", gotQuery, "region suffix is appended")
	assert.InDelta(t, 13.0827, coord.Lat, 1e-9)
	assert.InDelta(t, 80.2707, coord.Lon, 1e-9)
}

func TestResolveNoMatch(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := r.Resolve(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestResolveRejectsMatchOutsideRegion(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		// Mysuru: a real place, but not in the service region.
		_, _ = w.Write([]byte(`[{"lat":"12.2958","lon":"76.6394"}]`))
	})

	_, err := r.Resolve(context.Background(), "Mysuru Palace")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestResolveEmptyInput(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("no lookup should be issued for empty input")
	})

	_, err := r.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestResolveServerError(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := r.Resolve(context.Background(), "Guindy")
	assert.Error(t, err)
}

func TestRouteGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"coordinates":[[80.2707,13.0827],[80.2200,13.0400],[80.1709,12.9941]]}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewOSRMClient(srv.URL)
	points, err := c.RouteGeometry(context.Background(),
		route.Coordinate{Lat: 13.0827, Lon: 80.2707},
		route.Coordinate{Lat: 12.9941, Lon: 80.1709},
	)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 13.0827, points[0].Lat, 1e-9, "lon/lat pairs are flipped into lat/lon")
	assert.InDelta(t, 80.2707, points[0].Lon, 1e-9)
}

func TestRouteGeometryNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewOSRMClient(srv.URL)
	_, err := c.RouteGeometry(context.Background(), route.Coordinate{}, route.Coordinate{})
	assert.Error(t, err)
}
