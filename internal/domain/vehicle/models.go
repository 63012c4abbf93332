package vehicle

import "time"

// Snapshot is a single point-in-time record of a vehicle's mileage, service and
// trip state. It is built fresh from user input for every assessment and never
// mutated; an updated history produces a new snapshot that supersedes the old
// one at the storage layer.
type Snapshot struct {
	Class                       Class           `json:"vehicle_class"`
	FuelType                    FuelType        `json:"fuel_type,omitempty"`
	ManufactureYear             int             `json:"manufacture_year"`
	OdometerKm                  int             `json:"odometer_km"`
	LastServiceOdometerKm       int             `json:"last_service_odometer_km"`
	LastAlignmentOdometerKm     int             `json:"last_alignment_odometer_km,omitempty"`
	LastPressureCheckOdometerKm int             `json:"last_pressure_check_odometer_km,omitempty"`
	LastTyreChangeOdometerKm    int             `json:"last_tyre_change_odometer_km"`
	AlignmentHabit              Habit           `json:"alignment_habit,omitempty"`
	PressureCheckHabit          Habit           `json:"pressure_check_habit,omitempty"`
	RecentlyReplacedParts       []ReplacedPart  `json:"recently_replaced_parts,omitempty"`
	RecentTrips                 []Trip          `json:"recent_trips,omitempty"`
	Location                    Location        `json:"location"`
	Weather                     *WeatherContext `json:"weather_context,omitempty"`
}

// ReplacedPart records a part the user replaced recently. The odometer reading
// is optional; without it the matching maintenance rule is suppressed outright.
type ReplacedPart struct {
	Name       string     `json:"name"`
	OdometerKm *int       `json:"odometer_km,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// Trip is one recent journey. Dates are optional calendar dates used only for
// stagnation detection.
type Trip struct {
	DistanceKm float64    `json:"distance_km"`
	RoadTypes  []RoadType `json:"road_types"`
	Date       *time.Time `json:"date,omitempty"`
}

type Location struct {
	District     string `json:"district"`
	LocalityName string `json:"locality_name,omitempty"`
}

// WeatherContext is supplied by an external provider; the engine never fetches it.
type WeatherContext struct {
	Condition    WeatherCondition `json:"condition"`
	TemperatureC float64          `json:"temperature_c"`
	WindKmh      float64          `json:"wind_kmh"`
}

// Factor is one signed contribution to the risk score.
type Factor struct {
	Label     string `json:"label"`
	Magnitude int    `json:"magnitude"`
}

// DuePart is a maintenance item whose service interval has been exceeded.
type DuePart struct {
	PartName      string  `json:"part_name"`
	Urgency       Urgency `json:"urgency_tier"`
	EstimatedCost float64 `json:"estimated_cost"`
	Rationale     string  `json:"rationale"`
}

// Assessment is the engine's output. It carries no persisted identity; the
// caller owns any timestamps or IDs attached to it.
type Assessment struct {
	RiskScore           int       `json:"risk_score"`
	RiskLevel           RiskLevel `json:"risk_level"`
	ContributingFactors []Factor  `json:"contributing_factors"`
	DueParts            []DuePart `json:"due_parts"`
	Flags               []Flag    `json:"flags"`
}

// HasFlag reports whether the assessment carries the given flag.
func (a *Assessment) HasFlag(f Flag) bool {
	for _, have := range a.Flags {
		if have == f {
			return true
		}
	}
	return false
}
