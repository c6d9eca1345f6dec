// Package geo wraps the external geocoding and routing services. Both
// clients are display/lookup helpers only: fare distance is always
// computed from the haversine formula, never taken from a routing
// service's reported length.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// Resolver geocodes free-text place names to coordinates, constrained
// to the configured metropolitan region.
type Resolver interface {
	Resolve(ctx context.Context, placeText string) (route.Coordinate, error)
}

// NominatimResolver resolves place names through a Nominatim instance.
// Each call issues one external lookup; identical calls are idempotent
// and safe to retry.
type NominatimResolver struct {
	baseURL      string
	regionSuffix string
	bounds       route.Bounds
	client       *http.Client
	logger       *zap.Logger
}

// NewNominatimResolver creates a resolver bounded to the given region.
func NewNominatimResolver(baseURL, regionSuffix string, bounds route.Bounds, logger *zap.Logger) *NominatimResolver {
	return &NominatimResolver{
		baseURL:      baseURL,
		regionSuffix: regionSuffix,
		bounds:       bounds,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the best-match coordinate for the place text. Place
// names are suffixed with the region name before lookup, and results
// outside the region's bounding box are treated as not found.
func (r *NominatimResolver) Resolve(ctx context.Context, placeText string) (route.Coordinate, error) {
	if placeText == "" {
		return route.Coordinate{}, domain.NewValidationError("place name is required")
	}

	query := placeText
	if r.regionSuffix != "" {
		query = placeText + ", " + r.regionSuffix
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return route.Coordinate{}, err
	}
	req.Header.Set("User-Agent", "chennai-transit/service-pass")

	resp, err := r.client.Do(req)
	if err != nil {
		return route.Coordinate{}, fmt.Errorf("geocoder unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return route.Coordinate{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return route.Coordinate{}, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return route.Coordinate{}, notFound(placeText)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return route.Coordinate{}, fmt.Errorf("geocoder returned invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return route.Coordinate{}, fmt.Errorf("geocoder returned invalid longitude: %w", err)
	}

	coord, err := route.NewCoordinate(lat, lon)
	if err != nil {
		return route.Coordinate{}, err
	}
	if !r.bounds.Contains(coord) {
		r.logger.Debug("geocoder match outside region",
			zap.String("query", placeText),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return route.Coordinate{}, notFound(placeText)
	}
	return coord, nil
}

func notFound(placeText string) error {
	return domain.NewNotFoundError("location", placeText)
}
