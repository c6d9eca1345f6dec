package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinateValidation(t *testing.T) {
	_, err := NewCoordinate(13.05, 80.25)
	require.NoError(t, err)

	_, err = NewCoordinate(91, 80.25)
	assert.Error(t, err)

	_, err = NewCoordinate(13.05, 181)
	assert.Error(t, err)
}

func TestDistanceSymmetric(t *testing.T) {
	a := Coordinate{Lat: 13.0827, Lon: 80.2707} // Chennai Central
	b := Coordinate{Lat: 12.9941, Lon: 80.1709} // Guindy

	assert.InDelta(t, a.DistanceKm(b), b.DistanceKm(a), 1e-6)
}

func TestDistanceToSelfIsZero(t *testing.T) {
	a := Coordinate{Lat: 13.0827, Lon: 80.2707}
	assert.Equal(t, 0.0, a.DistanceKm(a))
}

func TestDistanceKnownPair(t *testing.T) {
	// Chennai Central to Tambaram is roughly 24 km great-circle.
	a := Coordinate{Lat: 13.0827, Lon: 80.2707}
	b := Coordinate{Lat: 12.9249, Lon: 80.1000}

	d := a.DistanceKm(b)
	assert.InDelta(t, 25.5, d, 2.0)
	assert.GreaterOrEqual(t, d, 0.0)
}

func TestBoundsContains(t *testing.T) {
	chennai := Bounds{MinLat: 12.9, MinLon: 80.1, MaxLat: 13.3, MaxLon: 80.4}

	assert.True(t, chennai.Contains(Coordinate{Lat: 13.0827, Lon: 80.2707}))
	assert.False(t, chennai.Contains(Coordinate{Lat: 12.2958, Lon: 76.6394}), "Mysuru is outside the region")
	assert.True(t, chennai.Contains(Coordinate{Lat: 12.9, Lon: 80.1}), "boundary is inclusive")
}
