package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseFareTiers(t *testing.T) {
	s := NewFareSchedule()

	tests := []struct {
		name       string
		distanceKm float64
		want       int64
	}{
		{"short hop", 2.0, 150},
		{"tier boundary 5km", 5.0, 150},
		{"mid distance", 7.5, 300},
		{"tier boundary 10km", 10.0, 300},
		{"long route", 15.0, 500},
		{"tier boundary 20km", 20.0, 500},
		{"beyond last tier", 32.4, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.BaseFare(tt.distanceKm)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseFareRejectsNegativeDistance(t *testing.T) {
	s := NewFareSchedule()
	_, err := s.BaseFare(-1)
	assert.Error(t, err)
}

func TestBaseFareMonotonic(t *testing.T) {
	s := NewFareSchedule()
	distances := []float64{0, 1, 4.9, 5, 5.1, 9, 10, 12, 20, 25, 100}

	var prev int64
	for _, d := range distances {
		fare, err := s.BaseFare(d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, fare, prev, "fare must not decrease at %v km", d)
		prev = fare
	}
}

func TestApplyCategoryDiscount(t *testing.T) {
	s := NewFareSchedule()

	tests := []struct {
		category RiderCategory
		base     int64
		want     int64
	}{
		{CategoryElder, 100, 70},
		{CategoryStudent, 100, 80},
		{CategoryGeneral, 100, 100},
		{CategoryElder, 500, 350},
		{CategoryStudent, 150, 120},
		// half-up rounding: 155 * 0.7 = 108.5 -> 109
		{CategoryElder, 155, 109},
	}

	for _, tt := range tests {
		got, err := s.ApplyCategoryDiscount(tt.base, tt.category)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s discount on %d", tt.category, tt.base)
	}
}

func TestApplyCategoryDiscountUnknownCategory(t *testing.T) {
	s := NewFareSchedule()
	_, err := s.ApplyCategoryDiscount(100, RiderCategory("vip"))
	assert.Error(t, err)
}

func TestApplyDuration(t *testing.T) {
	s := NewFareSchedule()

	got, err := s.ApplyDuration(120, DurationThreeMonths)
	require.NoError(t, err)
	assert.Equal(t, int64(360), got)

	got, err = s.ApplyDuration(350, DurationOneMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(350), got)

	_, err = s.ApplyDuration(100, DurationMonths(6))
	assert.Error(t, err)
}

func TestQuoteScenarios(t *testing.T) {
	s := NewFareSchedule()

	// 4.2 km student for 3 months: 150 -> 120 -> 360
	total, err := s.Quote(4.2, CategoryStudent, DurationThreeMonths)
	require.NoError(t, err)
	assert.Equal(t, int64(360), total)

	// 15 km elder for 1 month: 500 -> 350 -> 350
	total, err = s.Quote(15, CategoryElder, DurationOneMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
}

func TestParseRiderCategory(t *testing.T) {
	for _, valid := range []string{"general", "student", "elder"} {
		got, err := ParseRiderCategory(valid)
		require.NoError(t, err)
		assert.Equal(t, RiderCategory(valid), got)
	}

	_, err := ParseRiderCategory("senior")
	assert.Error(t, err)
}

func TestParseDurationMonths(t *testing.T) {
	for _, valid := range []int{1, 3} {
		got, err := ParseDurationMonths(valid)
		require.NoError(t, err)
		assert.Equal(t, DurationMonths(valid), got)
	}

	for _, invalid := range []int{0, 2, 6, -1} {
		_, err := ParseDurationMonths(invalid)
		assert.Error(t, err, "duration %d", invalid)
	}
}
