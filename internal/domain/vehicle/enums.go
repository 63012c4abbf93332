package vehicle

// Class represents the vehicle category a snapshot describes.
type Class string

const (
	ClassCar          Class = "Car"
	ClassHybrid       Class = "Hybrid"
	ClassElectric     Class = "ElectricVehicle"
	ClassMotorbike    Class = "Motorbike"
	ClassThreeWheeler Class = "ThreeWheeler"
)

// AllClasses returns every valid vehicle class.
func AllClasses() []Class {
	return []Class{ClassCar, ClassHybrid, ClassElectric, ClassMotorbike, ClassThreeWheeler}
}

func (c Class) Valid() bool {
	switch c {
	case ClassCar, ClassHybrid, ClassElectric, ClassMotorbike, ClassThreeWheeler:
		return true
	}
	return false
}

func (c Class) String() string {
	return string(c)
}

// TwoOrThreeWheeler reports whether the class uses pressure-check rules
// instead of wheel-alignment rules.
func (c Class) TwoOrThreeWheeler() bool {
	return c == ClassMotorbike || c == ClassThreeWheeler
}

// FuelType is the propulsion type. Derived from the class when the caller
// leaves it unset.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelHybrid   FuelType = "Hybrid"
	FuelElectric FuelType = "Electric"
)

func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric:
		return true
	}
	return false
}

// DefaultFuelType returns the fuel type implied by a vehicle class.
func DefaultFuelType(c Class) FuelType {
	switch c {
	case ClassHybrid:
		return FuelHybrid
	case ClassElectric:
		return FuelElectric
	default:
		return FuelPetrol
	}
}

// Habit describes how often the owner performs alignment or tyre-pressure checks.
type Habit string

const (
	HabitRegular    Habit = "Regular"
	HabitOccasional Habit = "Occasional"
	HabitRarely     Habit = "Rarely"
)

func (h Habit) Valid() bool {
	switch h {
	case HabitRegular, HabitOccasional, HabitRarely:
		return true
	}
	return false
}

// RoadType classifies the surfaces covered during a recent trip.
type RoadType string

const (
	RoadCarpeted      RoadType = "Carpeted"
	RoadCityTraffic   RoadType = "CityTraffic"
	RoadPotholesRough RoadType = "PotholesRough"
	RoadMountainSlope RoadType = "MountainSlopes"
	RoadSlipperyMuddy RoadType = "SlipperyMuddy"
)

func (r RoadType) Valid() bool {
	switch r {
	case RoadCarpeted, RoadCityTraffic, RoadPotholesRough, RoadMountainSlope, RoadSlipperyMuddy:
		return true
	}
	return false
}

// WeatherCondition is the condition enum supplied by the external weather provider.
type WeatherCondition string

const (
	WeatherClear WeatherCondition = "Clear"
	WeatherRain  WeatherCondition = "Rain"
	WeatherStorm WeatherCondition = "Storm"
	WeatherFog   WeatherCondition = "Fog"
	WeatherOther WeatherCondition = "Other"
)

func (w WeatherCondition) Valid() bool {
	switch w {
	case WeatherClear, WeatherRain, WeatherStorm, WeatherFog, WeatherOther:
		return true
	}
	return false
}

// Urgency is the four-level ordinal classification of how soon a part must be serviced.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyModerate Urgency = "Moderate"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyModerate, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Rank orders urgencies for sorting, Critical highest.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyModerate:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// RiskLevel classifies a bounded risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Flag marks a discrete finding produced during an assessment.
type Flag string

const (
	FlagServiceOverdue     Flag = "ServiceOverdue"
	FlagAlignmentOverdue   Flag = "AlignmentOverdue"
	FlagTyreWearHigh       Flag = "TyreWearHigh"
	FlagStagnationDetected Flag = "StagnationDetected"
)
