package route

import (
	"fmt"

	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// SelectionState tracks the progress of point-based route picking.
type SelectionState string

const (
	StateEmpty       SelectionState = "empty"
	StateStartPicked SelectionState = "start_picked"
	StateComplete    SelectionState = "complete"
)

// Selection errors surfaced to callers.
var (
	ErrNoRouteSelected   = domain.NewConflictError("no route selected")
	ErrSelectionComplete = domain.NewConflictError("route already selected, reset before picking again")
	ErrStaleSelection    = domain.NewConflictError("selection changed while the lookup was in flight")
)

// FareQuote is the priced outcome of a completed selection.
type FareQuote struct {
	StartLabel     string         `json:"start_label"`
	EndLabel       string         `json:"end_label"`
	DistanceKm     float64        `json:"distance_km"`
	BaseFare       int64          `json:"base_fare"`
	DiscountedFare int64          `json:"discounted_fare"`
	TotalFare      int64          `json:"total_fare"`
	Category       RiderCategory  `json:"category"`
	Duration       DurationMonths `json:"duration_months"`
}

// Selection holds one rider's in-progress route choice. All fields
// change together: a successful selection replaces the whole state,
// and Reset clears the whole state. The generation counter lets
// callers discard lookup results that arrive after a Reset.
//
// Selection is not safe for concurrent use; the owning service
// serializes access per rider.
type Selection struct {
	schedule *FareSchedule

	state      SelectionState
	startLabel string
	endLabel   string
	start      Coordinate
	end        Coordinate
	distanceKm float64
	baseFare   int64

	generation uint64
	onChange   func()
}

// NewSelection creates an empty selection priced by the given schedule.
func NewSelection(schedule *FareSchedule) *Selection {
	return &Selection{schedule: schedule, state: StateEmpty}
}

// State returns the current selection state.
func (s *Selection) State() SelectionState { return s.state }

// Selected reports whether the route is fully chosen and priced.
func (s *Selection) Selected() bool { return s.state == StateComplete }

// Generation returns the current version counter. Capture it before an
// asynchronous lookup and pass it back to SetRoute so results that
// outlive a Reset are rejected.
func (s *Selection) Generation() uint64 { return s.generation }

// StartLabel returns the start endpoint's display label.
func (s *Selection) StartLabel() string { return s.startLabel }

// EndLabel returns the end endpoint's display label.
func (s *Selection) EndLabel() string { return s.endLabel }

// Start returns the start coordinate and whether it is set.
func (s *Selection) Start() (Coordinate, bool) {
	return s.start, s.state != StateEmpty
}

// End returns the end coordinate and whether it is set.
func (s *Selection) End() (Coordinate, bool) {
	return s.end, s.state == StateComplete
}

// DistanceKm returns the computed route distance, zero until complete.
func (s *Selection) DistanceKm() float64 { return s.distanceKm }

// BaseFare returns the computed monthly base fare, zero until complete.
func (s *Selection) BaseFare() int64 { return s.baseFare }

// OnChange registers a callback invoked synchronously after every
// state mutation. Only one subscriber is kept.
func (s *Selection) OnChange(fn func()) { s.onChange = fn }

func (s *Selection) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// SetRoute atomically replaces the selection with a resolved route.
// The old state is fully cleared before the new one is applied. gen
// must be the generation captured before the lookup began; if the
// selection was reset or replaced in the meantime the result is
// rejected with ErrStaleSelection and no state changes.
func (s *Selection) SetRoute(gen uint64, startLabel, endLabel string, start, end Coordinate) error {
	if gen != s.generation {
		return ErrStaleSelection
	}
	s.clear()

	distance := start.DistanceKm(end)
	fare, err := s.schedule.BaseFare(distance)
	if err != nil {
		s.generation++
		s.notify()
		return err
	}

	s.state = StateComplete
	s.startLabel = startLabel
	s.endLabel = endLabel
	s.start = start
	s.end = end
	s.distanceKm = distance
	s.baseFare = fare
	s.generation++
	s.notify()
	return nil
}

// PickPoint advances the point-based selection: the first pick becomes
// the start, the second becomes the end and finalizes distance and
// fare. A third pick is rejected; callers must Reset first.
func (s *Selection) PickPoint(c Coordinate) error {
	switch s.state {
	case StateEmpty:
		s.start = c
		s.startLabel = pointLabel(c)
		s.state = StateStartPicked
		s.generation++
		s.notify()
		return nil
	case StateStartPicked:
		return s.SetRoute(s.generation, s.startLabel, pointLabel(c), s.start, c)
	default:
		return ErrSelectionComplete
	}
}

// Reset clears every field back to the empty state and bumps the
// generation so in-flight lookup results are discarded on arrival.
func (s *Selection) Reset() {
	s.clear()
	s.generation++
	s.notify()
}

func (s *Selection) clear() {
	s.state = StateEmpty
	s.startLabel = ""
	s.endLabel = ""
	s.start = Coordinate{}
	s.end = Coordinate{}
	s.distanceKm = 0
	s.baseFare = 0
}

// Quote prices the selected route for the rider category and duration.
func (s *Selection) Quote(category RiderCategory, duration DurationMonths) (FareQuote, error) {
	if !s.Selected() {
		return FareQuote{}, ErrNoRouteSelected
	}
	discounted, err := s.schedule.ApplyCategoryDiscount(s.baseFare, category)
	if err != nil {
		return FareQuote{}, err
	}
	total, err := s.schedule.ApplyDuration(discounted, duration)
	if err != nil {
		return FareQuote{}, err
	}
	return FareQuote{
		StartLabel:     s.startLabel,
		EndLabel:       s.endLabel,
		DistanceKm:     s.distanceKm,
		BaseFare:       s.baseFare,
		DiscountedFare: discounted,
		TotalFare:      total,
		Category:       category,
		Duration:       duration,
	}, nil
}

func pointLabel(c Coordinate) string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lon)
}
