package risk

import "vehicle-bot/internal/domain/vehicle"

// PartCategory groups replaced parts that earn a risk credit.
type PartCategory string

const (
	CategoryTyres   PartCategory = "Tyres"
	CategoryBrakes  PartCategory = "Brakes"
	CategoryBattery PartCategory = "Battery"
)

// Weights collects every tunable threshold and penalty of the scoring model.
// The source iterations of this product kept changing these numbers, so they
// are configuration, not logic; DefaultWeights is the reference behavior.
type Weights struct {
	// Stage 1: service interval.
	ServicePenalty     int     // applied at >= 1x the class interval
	ServiceLatePenalty int     // applied additionally past ServiceLateFactor x interval
	ServiceLateFactor  float64

	// Stage 2: alignment / pressure checks.
	AlignmentIntervalKm int
	PressureIntervalKm  int
	CheckBasePenalty    int
	HabitPenaltyFactor  map[vehicle.Habit]float64

	// Stage 3: tyre wear.
	RoadSeverity         map[vehicle.RoadType]float64
	TyreHabitBump        map[vehicle.Habit]float64
	ElectricTyreBump     float64
	TyreFairKm           int
	TyreDangerousKm      int
	TyreFairPenalty      int
	TyreDangerousPenalty int

	// Stage 4: road and weather exposure.
	RoadPenalty      map[vehicle.RoadType]int
	WeatherPenalty   int
	WindThresholdKmh float64
	WindPenalty      int

	// Stage 5: stagnation.
	StagnationGapDays int
	StagnationPenalty int

	// Stage 6: replaced-part credits.
	PartCredits map[PartCategory]int

	// Risk level cut points: < Low -> Low, < Moderate -> Moderate, < High -> High,
	// otherwise Critical.
	CutLow      int
	CutModerate int
	CutHigh     int
}

// DefaultWeights returns the reference scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		ServicePenalty:     15,
		ServiceLatePenalty: 10,
		ServiceLateFactor:  1.5,

		AlignmentIntervalKm: 10000,
		PressureIntervalKm:  2000,
		CheckBasePenalty:    10,
		HabitPenaltyFactor: map[vehicle.Habit]float64{
			vehicle.HabitRegular:    0.5,
			vehicle.HabitOccasional: 1.0,
			vehicle.HabitRarely:     1.5,
		},

		RoadSeverity: map[vehicle.RoadType]float64{
			vehicle.RoadCarpeted:      0,
			vehicle.RoadCityTraffic:   0.10,
			vehicle.RoadSlipperyMuddy: 0.20,
			vehicle.RoadPotholesRough: 0.30,
			vehicle.RoadMountainSlope: 0.40,
		},
		TyreHabitBump: map[vehicle.Habit]float64{
			vehicle.HabitRegular:    0,
			vehicle.HabitOccasional: 0.10,
			vehicle.HabitRarely:     0.20,
		},
		ElectricTyreBump:     0.15,
		TyreFairKm:           25000,
		TyreDangerousKm:      40000,
		TyreFairPenalty:      10,
		TyreDangerousPenalty: 25,

		RoadPenalty: map[vehicle.RoadType]int{
			vehicle.RoadCityTraffic:   2,
			vehicle.RoadMountainSlope: 6,
			vehicle.RoadSlipperyMuddy: 7,
			vehicle.RoadPotholesRough: 8,
		},
		WeatherPenalty:   6,
		WindThresholdKmh: 40,
		WindPenalty:      4,

		StagnationGapDays: 14,
		StagnationPenalty: 8,

		PartCredits: map[PartCategory]int{
			CategoryTyres:   10,
			CategoryBrakes:  10,
			CategoryBattery: 8,
		},

		CutLow:      20,
		CutModerate: 40,
		CutHigh:     60,
	}
}
