package risk

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vehicle-bot/internal/domain/vehicle"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	rules, err := LoadDefaultRules()
	require.NoError(t, err)
	return New(rules, WithClock(fixedClock()))
}

func baseCar() vehicle.Snapshot {
	return vehicle.Snapshot{
		Class:                    vehicle.ClassCar,
		ManufactureYear:          2018,
		OdometerKm:               60000,
		LastServiceOdometerKm:    55000,
		LastAlignmentOdometerKm:  58000,
		LastTyreChangeOdometerKm: 50000,
		AlignmentHabit:           vehicle.HabitRegular,
		Location:                 vehicle.Location{District: "Colombo"},
	}
}

func baseMotorbike() vehicle.Snapshot {
	return vehicle.Snapshot{
		Class:                       vehicle.ClassMotorbike,
		ManufactureYear:             2020,
		OdometerKm:                  50000,
		LastServiceOdometerKm:       48000,
		LastPressureCheckOdometerKm: 49000,
		LastTyreChangeOdometerKm:    45000,
		PressureCheckHabit:          vehicle.HabitRegular,
		Location:                    vehicle.Location{District: "Kandy"},
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int { return &v }

func TestAssessServiceIntervalBelowThreshold(t *testing.T) {
	e := testEngine(t)

	// 5000 km since service, below the 8000 km car threshold.
	a, err := e.Assess(baseCar())
	require.NoError(t, err)

	require.False(t, a.HasFlag(vehicle.FlagServiceOverdue))
	for _, f := range a.ContributingFactors {
		if f.Label == "Service overdue" {
			t.Fatalf("unexpected service contribution: %+v", f)
		}
	}
	require.Equal(t, 0, a.RiskScore)
	require.Equal(t, vehicle.RiskLow, a.RiskLevel)
}

func TestAssessServiceIntervalAtThreshold(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.OdometerKm = 63000 // exactly 8000 km since service
	s.LastAlignmentOdometerKm = 60000

	a, err := e.Assess(s)
	require.NoError(t, err)
	require.True(t, a.HasFlag(vehicle.FlagServiceOverdue))
	require.Equal(t, DefaultWeights().ServicePenalty, a.RiskScore)
}

func TestAssessServiceSecondTier(t *testing.T) {
	e := testEngine(t)
	w := DefaultWeights()

	s := baseCar()
	s.OdometerKm = 67000
	s.LastServiceOdometerKm = 55000 // 12000 km = 1.5x interval
	s.LastAlignmentOdometerKm = 65000
	s.LastTyreChangeOdometerKm = 60000

	a, err := e.Assess(s)
	require.NoError(t, err)
	require.Equal(t, w.ServicePenalty+w.ServiceLatePenalty, a.RiskScore)
}

func TestAssessDeterminism(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.OdometerKm = 80000
	s.LastServiceOdometerKm = 65000
	s.LastAlignmentOdometerKm = 66000
	s.LastTyreChangeOdometerKm = 40000
	s.RecentTrips = []vehicle.Trip{
		{DistanceKm: 120, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}, Date: date(2026, time.January, 1)},
		{DistanceKm: 30, RoadTypes: []vehicle.RoadType{vehicle.RoadCityTraffic}, Date: date(2026, time.January, 20)},
	}
	s.Weather = &vehicle.WeatherContext{Condition: vehicle.WeatherRain, TemperatureC: 28, WindKmh: 55}
	s.RecentlyReplacedParts = []vehicle.ReplacedPart{{Name: "Battery (12V)", OdometerKm: intPtr(78000)}}

	first, err := e.Assess(s)
	require.NoError(t, err)
	second, err := e.Assess(s)
	require.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("assessments differ between identical calls:\n%+v\n%+v", first, second)
	}
}

func TestAssessScoreBounds(t *testing.T) {
	e := testEngine(t)

	worst := vehicle.Snapshot{
		Class:           vehicle.ClassCar,
		ManufactureYear: 1995,
		OdometerKm:      300000,
		AlignmentHabit:  vehicle.HabitRarely,
		Location:        vehicle.Location{District: "Nuwara Eliya"},
		RecentTrips: []vehicle.Trip{
			{DistanceKm: 200, RoadTypes: []vehicle.RoadType{vehicle.RoadPotholesRough, vehicle.RoadMountainSlope}, Date: date(2026, time.February, 1)},
			{DistanceKm: 90, RoadTypes: []vehicle.RoadType{vehicle.RoadSlipperyMuddy, vehicle.RoadCityTraffic}, Date: date(2026, time.April, 1)},
		},
		Weather: &vehicle.WeatherContext{Condition: vehicle.WeatherStorm, WindKmh: 80},
	}

	a, err := e.Assess(worst)
	require.NoError(t, err)
	require.GreaterOrEqual(t, a.RiskScore, 0)
	require.LessOrEqual(t, a.RiskScore, 100)
	require.Equal(t, vehicle.RiskCritical, a.RiskLevel)
}

func TestAssessMonotonicInServiceDistance(t *testing.T) {
	e := testEngine(t)

	prev := -1
	for lastService := 60000; lastService >= 0; lastService -= 5000 {
		s := baseCar()
		s.LastServiceOdometerKm = lastService
		a, err := e.Assess(s)
		require.NoError(t, err)
		if prev >= 0 && a.RiskScore < prev {
			t.Fatalf("score decreased from %d to %d as km_since_service grew", prev, a.RiskScore)
		}
		prev = a.RiskScore
	}
}

func TestAssessCreditsNeverGoNegative(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.RecentlyReplacedParts = []vehicle.ReplacedPart{
		{Name: "Tyres (Set)", OdometerKm: intPtr(59000)},
		{Name: "Brake Pads (Front)", OdometerKm: intPtr(59000)},
		{Name: "Battery (12V)", OdometerKm: intPtr(59000)},
	}

	a, err := e.Assess(s)
	require.NoError(t, err)
	require.Equal(t, 0, a.RiskScore)
}

func TestAssessReplacedPartLowersScore(t *testing.T) {
	e := testEngine(t)

	risky := baseCar()
	risky.OdometerKm = 64000 // service overdue keeps the base score above zero
	risky.LastAlignmentOdometerKm = 62000
	risky.LastTyreChangeOdometerKm = 55000

	withBrakes := risky
	withBrakes.RecentlyReplacedParts = []vehicle.ReplacedPart{{Name: "Brakes", OdometerKm: intPtr(63000)}}

	plain, err := e.Assess(risky)
	require.NoError(t, err)
	credited, err := e.Assess(withBrakes)
	require.NoError(t, err)
	require.Less(t, credited.RiskScore, plain.RiskScore)
}

func TestAssessRoadTypeCountedOncePerDistinctType(t *testing.T) {
	e := testEngine(t)

	once := baseMotorbike()
	once.RecentTrips = []vehicle.Trip{
		{DistanceKm: 40, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}},
	}

	twice := baseMotorbike()
	twice.RecentTrips = []vehicle.Trip{
		{DistanceKm: 40, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}},
		{DistanceKm: 55, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}},
	}

	a1, err := e.Assess(once)
	require.NoError(t, err)
	a2, err := e.Assess(twice)
	require.NoError(t, err)

	// Same distinct road exposure and same max severity weight: identical
	// score, whether the commute shows up once or twice.
	require.Equal(t, a1.RiskScore, a2.RiskScore)

	mountainFactors := 0
	for _, f := range a2.ContributingFactors {
		if f.Label == "Road exposure: MountainSlopes" {
			mountainFactors++
		}
	}
	require.Equal(t, 1, mountainFactors)
}

func TestAssessStagnationDetected(t *testing.T) {
	e := testEngine(t)
	w := DefaultWeights()

	s := baseCar()
	s.RecentTrips = []vehicle.Trip{
		{DistanceKm: 10, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}, Date: date(2026, time.January, 1)},
		{DistanceKm: 12, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}, Date: date(2026, time.January, 20)},
	}

	a, err := e.Assess(s)
	require.NoError(t, err)
	require.True(t, a.HasFlag(vehicle.FlagStagnationDetected))
	require.Equal(t, w.StagnationPenalty, a.RiskScore)
}

func TestAssessStagnationIgnoresShortGaps(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.RecentTrips = []vehicle.Trip{
		{DistanceKm: 10, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}, Date: date(2026, time.January, 1)},
		{DistanceKm: 12, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}, Date: date(2026, time.January, 10)},
		{DistanceKm: 8, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}, Date: date(2026, time.January, 22)},
	}

	a, err := e.Assess(s)
	require.NoError(t, err)
	require.False(t, a.HasFlag(vehicle.FlagStagnationDetected))
}

func TestAssessTyreWearUsesMaxSeverityNotSum(t *testing.T) {
	e := testEngine(t)

	// Two mountain trips must not double the wear multiplier: with
	// last_tyre_change at 45000 and odometer at 50000, a single 1.4x
	// multiplier keeps the effective distance at 7000 km (Good tier), while
	// a summed 1.8x would still be Good; push the base distance up so the
	// difference becomes observable at the Fair boundary.
	s := baseMotorbike()
	s.LastTyreChangeOdometerKm = 30000 // base 20000 km
	s.RecentTrips = []vehicle.Trip{
		{DistanceKm: 40, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}},
		{DistanceKm: 60, RoadTypes: []vehicle.RoadType{vehicle.RoadMountainSlope}},
	}

	a, err := e.Assess(s)
	require.NoError(t, err)

	// 20000 * 1.4 = 28000: Fair, not Dangerous (a summed 1.8 would give 36000,
	// still Fair, but a doubled 0.8 bump plus habit would cross 40000).
	found := false
	for _, f := range a.ContributingFactors {
		if f.Label == "Tyre wear fair (effective 28000 km)" {
			found = true
		}
	}
	require.True(t, found, "expected Fair tyre tier from single max severity weight, factors: %+v", a.ContributingFactors)
	require.False(t, a.HasFlag(vehicle.FlagTyreWearHigh))
}

func TestAssessElectricFuelTypeDerived(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.Class = vehicle.ClassElectric
	s.FuelType = "" // must derive Electric and resolve the EV rule table

	_, err := e.Assess(s)
	require.NoError(t, err)
}

func TestDuePartsOrdering(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.OdometerKm = 50000
	s.LastServiceOdometerKm = 0
	s.LastAlignmentOdometerKm = 48000
	s.LastTyreChangeOdometerKm = 49000

	due, err := e.DueParts(s)
	require.NoError(t, err)

	names := make([]string, 0, len(due))
	for _, d := range due {
		names = append(names, d.PartName)
	}
	require.Equal(t, []string{
		"Engine Oil (4L)",      // Critical
		"Brake Pads (Front)",   // High, name asc
		"Oil Filter",
		"Tyres (Set)",
		"Air Filter",           // Moderate, name asc
		"Battery (12V)",
		"Coolant Flush",
		"Spark Plugs",
	}, names)
}

func TestDuePartsSuppressionWithReplacementOdometer(t *testing.T) {
	e := testEngine(t)

	s := baseMotorbike()
	s.OdometerKm = 20000
	s.LastServiceOdometerKm = 4000 // 16000 km since service: chain kit due
	s.LastPressureCheckOdometerKm = 19000
	s.LastTyreChangeOdometerKm = 18000

	due, err := e.DueParts(s)
	require.NoError(t, err)
	require.True(t, containsPart(due, "Chain Sprocket Kit"))

	// Replaced 5000 km ago: suppressed until a full 15000 km interval passes
	// from the replacement odometer.
	s.RecentlyReplacedParts = []vehicle.ReplacedPart{{Name: "Chain Sprocket Kit", OdometerKm: intPtr(15000)}}
	due, err = e.DueParts(s)
	require.NoError(t, err)
	require.False(t, containsPart(due, "Chain Sprocket Kit"))

	// Replacement a full interval ago: due again, anchored to the replacement.
	s.RecentlyReplacedParts = []vehicle.ReplacedPart{{Name: "Chain Sprocket Kit", OdometerKm: intPtr(5000)}}
	due, err = e.DueParts(s)
	require.NoError(t, err)
	require.True(t, containsPart(due, "Chain Sprocket Kit"))
}

func TestDuePartsSuppressionWithoutReplacementOdometer(t *testing.T) {
	e := testEngine(t)

	s := baseMotorbike()
	s.OdometerKm = 20000
	s.LastServiceOdometerKm = 0
	s.LastPressureCheckOdometerKm = 19000
	s.LastTyreChangeOdometerKm = 18000
	s.RecentlyReplacedParts = []vehicle.ReplacedPart{{Name: "Spark Plug"}}

	due, err := e.DueParts(s)
	require.NoError(t, err)
	require.False(t, containsPart(due, "Spark Plug"))
}

func TestDuePartsElectricNeverListsCombustionParts(t *testing.T) {
	e := testEngine(t)

	for _, odometer := range []int{0, 10000, 50000, 120000, 400000} {
		s := vehicle.Snapshot{
			Class:           vehicle.ClassElectric,
			ManufactureYear: 2022,
			OdometerKm:      odometer,
			Location:        vehicle.Location{District: "Gampaha"},
		}
		due, err := e.DueParts(s)
		require.NoError(t, err)
		for _, d := range due {
			if d.PartName == "Engine Oil" || d.PartName == "Spark Plugs" {
				t.Fatalf("combustion part %q listed for ElectricVehicle at %d km", d.PartName, odometer)
			}
		}
	}
}

func TestDuePartsEmptyTripsAreFine(t *testing.T) {
	e := testEngine(t)

	s := baseCar()
	s.RecentTrips = nil

	_, err := e.Assess(s)
	require.NoError(t, err)
	_, err = e.DueParts(s)
	require.NoError(t, err)
}

func TestValidationErrors(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name    string
		mutate  func(*vehicle.Snapshot)
		wantErr error
	}{
		{
			name:    "service odometer ahead of odometer",
			mutate:  func(s *vehicle.Snapshot) { s.LastServiceOdometerKm = s.OdometerKm + 1 },
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "negative odometer",
			mutate:  func(s *vehicle.Snapshot) { s.OdometerKm = -1; s.LastServiceOdometerKm = -1 },
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "future manufacture year",
			mutate:  func(s *vehicle.Snapshot) { s.ManufactureYear = 2027 },
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "manufacture year before 1980",
			mutate:  func(s *vehicle.Snapshot) { s.ManufactureYear = 1975 },
			wantErr: ErrInvalidSnapshot,
		},
		{
			name: "negative trip distance",
			mutate: func(s *vehicle.Snapshot) {
				s.RecentTrips = []vehicle.Trip{{DistanceKm: -3, RoadTypes: []vehicle.RoadType{vehicle.RoadCarpeted}}}
			},
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "unknown district",
			mutate:  func(s *vehicle.Snapshot) { s.Location.District = "Atlantis" },
			wantErr: ErrInvalidSnapshot,
		},
		{
			name:    "unknown vehicle class",
			mutate:  func(s *vehicle.Snapshot) { s.Class = "Hovercraft" },
			wantErr: ErrUnknownVehicleClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseCar()
			tt.mutate(&s)

			_, err := e.Assess(s)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Assess() error = %v, want %v", err, tt.wantErr)
			}
			_, err = e.DueParts(s)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DueParts() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRiskLevelCutPoints(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		score int
		want  vehicle.RiskLevel
	}{
		{0, vehicle.RiskLow},
		{19, vehicle.RiskLow},
		{20, vehicle.RiskModerate},
		{39, vehicle.RiskModerate},
		{40, vehicle.RiskHigh},
		{59, vehicle.RiskHigh},
		{60, vehicle.RiskCritical},
		{100, vehicle.RiskCritical},
	}
	for _, tt := range tests {
		if got := e.levelFor(tt.score); got != tt.want {
			t.Errorf("levelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func containsPart(due []vehicle.DuePart, name string) bool {
	for _, d := range due {
		if d.PartName == name {
			return true
		}
	}
	return false
}
