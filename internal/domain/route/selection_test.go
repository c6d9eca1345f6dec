package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	central = Coordinate{Lat: 13.0827, Lon: 80.2707}
	guindy  = Coordinate{Lat: 12.9941, Lon: 80.1709}
)

func newTestSelection() *Selection {
	return NewSelection(NewFareSchedule())
}

func TestSetRouteCompletesSelection(t *testing.T) {
	sel := newTestSelection()

	err := sel.SetRoute(sel.Generation(), "Chennai Central", "Guindy", central, guindy)
	require.NoError(t, err)

	assert.True(t, sel.Selected())
	assert.Equal(t, StateComplete, sel.State())
	assert.Equal(t, "Chennai Central", sel.StartLabel())
	assert.Greater(t, sel.DistanceKm(), 0.0)
	assert.Greater(t, sel.BaseFare(), int64(0))
}

func TestSetRouteRejectsStaleGeneration(t *testing.T) {
	sel := newTestSelection()

	gen := sel.Generation()
	sel.Reset() // user reset while the lookup was in flight

	err := sel.SetRoute(gen, "Chennai Central", "Guindy", central, guindy)
	assert.ErrorIs(t, err, ErrStaleSelection)
	assert.False(t, sel.Selected())
}

func TestSetRouteReplacesPriorSelectionAtomically(t *testing.T) {
	sel := newTestSelection()
	require.NoError(t, sel.SetRoute(sel.Generation(), "Chennai Central", "Guindy", central, guindy))
	first := sel.DistanceKm()

	tambaram := Coordinate{Lat: 12.9249, Lon: 80.1000}
	require.NoError(t, sel.SetRoute(sel.Generation(), "Chennai Central", "Tambaram", central, tambaram))

	assert.Equal(t, "Tambaram", sel.EndLabel())
	assert.NotEqual(t, first, sel.DistanceKm())
}

func TestPickPointSequence(t *testing.T) {
	sel := newTestSelection()

	require.NoError(t, sel.PickPoint(central))
	assert.Equal(t, StateStartPicked, sel.State())
	assert.False(t, sel.Selected())

	require.NoError(t, sel.PickPoint(guindy))
	assert.Equal(t, StateComplete, sel.State())
	assert.True(t, sel.Selected())
	assert.Greater(t, sel.BaseFare(), int64(0))
}

func TestThirdPickRejected(t *testing.T) {
	sel := newTestSelection()
	require.NoError(t, sel.PickPoint(central))
	require.NoError(t, sel.PickPoint(guindy))

	err := sel.PickPoint(Coordinate{Lat: 13.1, Lon: 80.3})
	assert.ErrorIs(t, err, ErrSelectionComplete)

	// The completed selection is untouched by the rejected pick.
	assert.True(t, sel.Selected())
	assert.Equal(t, pointLabel(guindy), sel.EndLabel())
}

func TestResetClearsAllFields(t *testing.T) {
	sel := newTestSelection()
	require.NoError(t, sel.SetRoute(sel.Generation(), "Chennai Central", "Guindy", central, guindy))

	sel.Reset()

	assert.Equal(t, StateEmpty, sel.State())
	assert.False(t, sel.Selected())
	assert.Empty(t, sel.StartLabel())
	assert.Empty(t, sel.EndLabel())
	assert.Zero(t, sel.DistanceKm())
	assert.Zero(t, sel.BaseFare())
	_, ok := sel.Start()
	assert.False(t, ok)
	_, ok = sel.End()
	assert.False(t, ok)
}

func TestQuoteRequiresCompleteSelection(t *testing.T) {
	sel := newTestSelection()

	_, err := sel.Quote(CategoryGeneral, DurationOneMonth)
	assert.ErrorIs(t, err, ErrNoRouteSelected)

	require.NoError(t, sel.PickPoint(central))
	_, err = sel.Quote(CategoryGeneral, DurationOneMonth)
	assert.ErrorIs(t, err, ErrNoRouteSelected, "start-only selection cannot be quoted")
}

func TestQuoteComposesDiscountAndDuration(t *testing.T) {
	sel := newTestSelection()
	// ~4.2 km apart, lands in the first fare tier.
	a := Coordinate{Lat: 13.0827, Lon: 80.2707}
	b := Coordinate{Lat: 13.0700, Lon: 80.2340}
	require.NoError(t, sel.SetRoute(sel.Generation(), "Chennai Central", "Egmore West", a, b))
	require.Equal(t, int64(150), sel.BaseFare())

	q, err := sel.Quote(CategoryStudent, DurationThreeMonths)
	require.NoError(t, err)

	assert.Equal(t, int64(150), q.BaseFare)
	assert.Equal(t, int64(120), q.DiscountedFare)
	assert.Equal(t, int64(360), q.TotalFare)
	assert.Equal(t, CategoryStudent, q.Category)
	assert.Equal(t, DurationThreeMonths, q.Duration)
}

func TestOnChangeFiresOnEveryMutation(t *testing.T) {
	sel := newTestSelection()

	var calls int
	sel.OnChange(func() { calls++ })

	require.NoError(t, sel.PickPoint(central))
	require.NoError(t, sel.PickPoint(guindy))
	sel.Reset()

	assert.Equal(t, 3, calls)
}
