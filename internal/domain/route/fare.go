package route

import (
	"math"

	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// RiderCategory selects the concession applied to the base fare.
type RiderCategory string

const (
	CategoryGeneral RiderCategory = "general"
	CategoryStudent RiderCategory = "student"
	CategoryElder   RiderCategory = "elder"
)

// ParseRiderCategory converts a string to a RiderCategory.
func ParseRiderCategory(s string) (RiderCategory, error) {
	switch RiderCategory(s) {
	case CategoryGeneral, CategoryStudent, CategoryElder:
		return RiderCategory(s), nil
	default:
		return "", domain.NewValidationError("invalid rider category: " + s)
	}
}

// DurationMonths is the pass validity period. Only one- and
// three-month passes are sold.
type DurationMonths int

const (
	DurationOneMonth    DurationMonths = 1
	DurationThreeMonths DurationMonths = 3
)

// ParseDurationMonths converts an integer to a DurationMonths.
func ParseDurationMonths(n int) (DurationMonths, error) {
	switch DurationMonths(n) {
	case DurationOneMonth, DurationThreeMonths:
		return DurationMonths(n), nil
	default:
		return 0, domain.NewValidationError("duration must be 1 or 3 months")
	}
}

// fareTier maps a distance ceiling to a monthly base fare in rupees.
type fareTier struct {
	maxKm float64
	fare  int64
}

// Distance-banded monthly fares in whole rupees. The last tier has no
// ceiling.
var fareTiers = []fareTier{
	{maxKm: 5, fare: 150},
	{maxKm: 10, fare: 300},
	{maxKm: 20, fare: 500},
}

const fareBeyondLastTier int64 = 700

// categoryDiscounts holds the concession multiplier per rider category.
var categoryDiscounts = map[RiderCategory]float64{
	CategoryGeneral: 1.0,
	CategoryStudent: 0.8,
	CategoryElder:   0.7,
}

// FareSchedule computes pass fares from route distance, rider
// category and pass duration.
type FareSchedule struct{}

// NewFareSchedule creates the standard fare schedule.
func NewFareSchedule() *FareSchedule {
	return &FareSchedule{}
}

// BaseFare returns the monthly base fare in rupees for a route of the
// given distance.
func (s *FareSchedule) BaseFare(distanceKm float64) (int64, error) {
	if distanceKm < 0 {
		return 0, domain.NewValidationError("distance cannot be negative")
	}
	for _, tier := range fareTiers {
		if distanceKm <= tier.maxKm {
			return tier.fare, nil
		}
	}
	return fareBeyondLastTier, nil
}

// ApplyCategoryDiscount applies the concession for the rider category,
// rounding half-up to a whole rupee.
func (s *FareSchedule) ApplyCategoryDiscount(baseFare int64, category RiderCategory) (int64, error) {
	mult, ok := categoryDiscounts[category]
	if !ok {
		return 0, domain.NewValidationError("invalid rider category: " + string(category))
	}
	return int64(math.Round(float64(baseFare) * mult)), nil
}

// ApplyDuration multiplies the monthly fare by the pass duration.
func (s *FareSchedule) ApplyDuration(monthlyFare int64, duration DurationMonths) (int64, error) {
	switch duration {
	case DurationOneMonth, DurationThreeMonths:
		return monthlyFare * int64(duration), nil
	default:
		return 0, domain.NewValidationError("duration must be 1 or 3 months")
	}
}

// Quote computes the full payable fare: tiered base fare, concession,
// then duration.
func (s *FareSchedule) Quote(distanceKm float64, category RiderCategory, duration DurationMonths) (int64, error) {
	base, err := s.BaseFare(distanceKm)
	if err != nil {
		return 0, err
	}
	discounted, err := s.ApplyCategoryDiscount(base, category)
	if err != nil {
		return 0, err
	}
	return s.ApplyDuration(discounted, duration)
}
