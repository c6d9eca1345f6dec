package pass

import (
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// RouteSnapshot is an immutable copy of a rider's route selection taken
// at submission time. It is a value, never a reference: later changes
// to the rider's live selection must not affect a submitted application.
type RouteSnapshot struct {
	StartLabel string  `json:"start_label"`
	EndLabel   string  `json:"end_label"`
	StartLat   float64 `json:"start_lat"`
	StartLon   float64 `json:"start_lon"`
	EndLat     float64 `json:"end_lat"`
	EndLon     float64 `json:"end_lon"`
	DistanceKm float64 `json:"distance_km"`
	BaseFare   int64   `json:"base_fare"`
}

// SnapshotSelection copies a completed route selection into a snapshot.
func SnapshotSelection(sel *route.Selection) (RouteSnapshot, error) {
	if !sel.Selected() {
		return RouteSnapshot{}, route.ErrNoRouteSelected
	}
	start, _ := sel.Start()
	end, _ := sel.End()
	return RouteSnapshot{
		StartLabel: sel.StartLabel(),
		EndLabel:   sel.EndLabel(),
		StartLat:   start.Lat,
		StartLon:   start.Lon,
		EndLat:     end.Lat,
		EndLon:     end.Lon,
		DistanceKm: sel.DistanceKm(),
		BaseFare:   sel.BaseFare(),
	}, nil
}

// Validate checks that the snapshot carries a fully selected route.
func (r RouteSnapshot) Validate() error {
	if r.StartLabel == "" || r.EndLabel == "" {
		return domain.NewValidationError("route endpoints are required")
	}
	if r.DistanceKm < 0 {
		return domain.NewValidationError("route distance cannot be negative")
	}
	if r.BaseFare <= 0 {
		return domain.NewValidationError("route base fare must be positive")
	}
	return nil
}
