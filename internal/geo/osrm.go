package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chennai-transit/service-pass/internal/domain/route"
)

// OSRMClient fetches route geometry from an OSRM instance. The
// polyline is for map display only.
type OSRMClient struct {
	baseURL string
	client  *http.Client
}

// NewOSRMClient creates a routing client for the given OSRM base URL.
func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// RouteGeometry returns the path between two coordinates as an ordered
// list of points. A routing failure is non-fatal to callers; they fall
// back to a straight line between the endpoints.
func (c *OSRMClient) RouteGeometry(ctx context.Context, start, end route.Coordinate) ([]route.Coordinate, error) {
	// OSRM takes lon,lat pairs.
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, start.Lon, start.Lat, end.Lon, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing service returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode routing response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("routing service found no route")
	}

	coords := body.Routes[0].Geometry.Coordinates
	points := make([]route.Coordinate, 0, len(coords))
	for _, pair := range coords {
		if len(pair) < 2 {
			continue
		}
		points = append(points, route.Coordinate{Lat: pair[1], Lon: pair[0]})
	}
	return points, nil
}
