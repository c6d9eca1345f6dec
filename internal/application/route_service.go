package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	"github.com/chennai-transit/service-pass/internal/geo"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// SelectionDTO is the response representation of a route selection.
type SelectionDTO struct {
	State      string  `json:"state"`
	StartLabel string  `json:"start_label,omitempty"`
	EndLabel   string  `json:"end_label,omitempty"`
	StartLat   float64 `json:"start_lat,omitempty"`
	StartLon   float64 `json:"start_lon,omitempty"`
	EndLat     float64 `json:"end_lat,omitempty"`
	EndLon     float64 `json:"end_lon,omitempty"`
	DistanceKm float64 `json:"distance_km"`
	BaseFare   int64   `json:"base_fare"`
	Selected   bool    `json:"selected"`
}

// SelectByTextRequest holds the endpoints for a text-based selection.
type SelectByTextRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// PickPointRequest holds one map click.
type PickPointRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lon float64 `json:"lon" binding:"required"`
}

// QuoteRequest holds the fare quote parameters.
type QuoteRequest struct {
	Category string `json:"category" binding:"required"`
	Duration int    `json:"duration_months" binding:"required"`
}

// RouteService manages each rider's in-session route selection and
// fare quoting. Selections live only in memory for the session; the
// durable copy is the snapshot taken when an application is submitted.
type RouteService struct {
	resolver geo.Resolver
	routing  *geo.OSRMClient
	schedule *route.FareSchedule
	logger   *zap.Logger

	mu         sync.Mutex
	selections map[uuid.UUID]*route.Selection
}

// NewRouteService creates a new RouteService.
func NewRouteService(resolver geo.Resolver, routing *geo.OSRMClient, schedule *route.FareSchedule, logger *zap.Logger) *RouteService {
	return &RouteService{
		resolver:   resolver,
		routing:    routing,
		schedule:   schedule,
		logger:     logger,
		selections: make(map[uuid.UUID]*route.Selection),
	}
}

// selection returns the rider's selection, creating it on first use.
// Callers must hold s.mu.
func (s *RouteService) selection(riderID uuid.UUID) *route.Selection {
	sel, ok := s.selections[riderID]
	if !ok {
		sel = route.NewSelection(s.schedule)
		s.selections[riderID] = sel
	}
	return sel
}

// SelectByText resolves both endpoints and replaces the rider's
// selection. A reset issued while the lookups are in flight wins: the
// stale result is discarded.
func (s *RouteService) SelectByText(ctx context.Context, riderID uuid.UUID, req SelectByTextRequest) (*SelectionDTO, error) {
	s.mu.Lock()
	sel := s.selection(riderID)
	gen := sel.Generation()
	s.mu.Unlock()

	start, err := s.resolver.Resolve(ctx, req.Start)
	if err != nil {
		return nil, asInvalidLocation(err, req.Start)
	}
	end, err := s.resolver.Resolve(ctx, req.End)
	if err != nil {
		return nil, asInvalidLocation(err, req.End)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sel.SetRoute(gen, req.Start, req.End, start, end); err != nil {
		return nil, err
	}

	s.logger.Info("route selected",
		zap.String("rider_id", riderID.String()),
		zap.String("start", req.Start),
		zap.String("end", req.End),
		zap.Float64("distance_km", sel.DistanceKm()),
	)
	dto := toSelectionDTO(sel)
	return &dto, nil
}

// PickPoint advances the rider's point-based selection.
func (s *RouteService) PickPoint(riderID uuid.UUID, req PickPointRequest) (*SelectionDTO, error) {
	coord, err := route.NewCoordinate(req.Lat, req.Lon)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(riderID)
	if err := sel.PickPoint(coord); err != nil {
		return nil, err
	}
	dto := toSelectionDTO(sel)
	return &dto, nil
}

// Reset clears the rider's selection.
func (s *RouteService) Reset(riderID uuid.UUID) *SelectionDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(riderID)
	sel.Reset()
	dto := toSelectionDTO(sel)
	return &dto
}

// GetSelection returns the rider's current selection state.
func (s *RouteService) GetSelection(riderID uuid.UUID) *SelectionDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	dto := toSelectionDTO(s.selection(riderID))
	return &dto
}

// Quote prices the rider's selected route.
func (s *RouteService) Quote(riderID uuid.UUID, req QuoteRequest) (*route.FareQuote, error) {
	category, err := route.ParseRiderCategory(req.Category)
	if err != nil {
		return nil, err
	}
	duration, err := route.ParseDurationMonths(req.Duration)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	quote, err := s.selection(riderID).Quote(category, duration)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Snapshot copies the rider's completed selection for submission.
func (s *RouteService) Snapshot(riderID uuid.UUID) (passDomain.RouteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return passDomain.SnapshotSelection(s.selection(riderID))
}

// RouteGeometry returns the display polyline for the selected route.
// When the routing service fails the straight line between the
// endpoints is returned instead; geometry is display-only and never
// feeds fare distance.
func (s *RouteService) RouteGeometry(ctx context.Context, riderID uuid.UUID) ([]route.Coordinate, error) {
	s.mu.Lock()
	sel := s.selection(riderID)
	if !sel.Selected() {
		s.mu.Unlock()
		return nil, route.ErrNoRouteSelected
	}
	start, _ := sel.Start()
	end, _ := sel.End()
	s.mu.Unlock()

	points, err := s.routing.RouteGeometry(ctx, start, end)
	if err != nil {
		s.logger.Warn("routing service failed, falling back to straight line", zap.Error(err))
		return []route.Coordinate{start, end}, nil
	}
	return points, nil
}

// --- Helpers ---

func toSelectionDTO(sel *route.Selection) SelectionDTO {
	dto := SelectionDTO{
		State:      string(sel.State()),
		StartLabel: sel.StartLabel(),
		EndLabel:   sel.EndLabel(),
		DistanceKm: sel.DistanceKm(),
		BaseFare:   sel.BaseFare(),
		Selected:   sel.Selected(),
	}
	if start, ok := sel.Start(); ok {
		dto.StartLat = start.Lat
		dto.StartLon = start.Lon
	}
	if end, ok := sel.End(); ok {
		dto.EndLat = end.Lat
		dto.EndLon = end.Lon
	}
	return dto
}

// asInvalidLocation turns a geocoder miss into a recoverable
// validation failure prompting re-entry; other errors pass through.
func asInvalidLocation(err error, placeText string) error {
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.NewValidationError(fmt.Sprintf("location not found: %s", placeText))
	}
	return err
}
