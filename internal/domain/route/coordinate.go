package route

import (
	"math"

	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates the raw latitude/longitude ranges.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, domain.NewValidationError("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, domain.NewValidationError("longitude must be between -180 and 180")
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// DistanceKm returns the great-circle distance to other in kilometres,
// using the haversine formula.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bounds is a rectangular lat/lon region.
type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether the coordinate lies inside the region.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat &&
		c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}
