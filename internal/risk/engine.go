package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"vehicle-bot/internal/domain/vehicle"
	"vehicle-bot/internal/utils"
)

var (
	// ErrInvalidSnapshot marks structurally inconsistent input. It is never
	// converted into a degraded score; the caller must reject the request.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrUnknownVehicleClass marks a configuration gap: no rule table covers
	// the snapshot's class and fuel type.
	ErrUnknownVehicleClass = errors.New("unknown vehicle class")
)

const minManufactureYear = 1980

// Engine computes deterministic maintenance-risk assessments. It holds only
// immutable configuration and is safe for concurrent use; Assess and DueParts
// are pure functions of their input.
type Engine struct {
	rules   *RuleSet
	weights Weights
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default scoring weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithClock overrides the clock used for manufacture-year validation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(rules *RuleSet, opts ...Option) *Engine {
	e := &Engine{
		rules:   rules,
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assess turns a snapshot into a risk assessment: a bounded score, its level,
// the signed contributions behind it, the parts currently due, and flags.
func (e *Engine) Assess(s vehicle.Snapshot) (*vehicle.Assessment, error) {
	s = withDerivedFuel(s)
	if err := e.validate(s); err != nil {
		return nil, err
	}

	dueParts, err := e.dueParts(s)
	if err != nil {
		return nil, err
	}

	a := &vehicle.Assessment{
		ContributingFactors: []vehicle.Factor{},
		DueParts:            dueParts,
		Flags:               []vehicle.Flag{},
	}

	score := 0
	score += e.serviceStage(s, a)
	score += e.checkStage(s, a)
	score += e.tyreStage(s, a)
	score += e.exposureStage(s, a)
	score += e.stagnationStage(s, a)
	score += e.creditStage(s, a)

	a.RiskScore = clamp(score, 0, 100)
	a.RiskLevel = e.levelFor(a.RiskScore)
	return a, nil
}

// DueParts evaluates only the maintenance rule table for the snapshot's class
// and fuel type.
func (e *Engine) DueParts(s vehicle.Snapshot) ([]vehicle.DuePart, error) {
	s = withDerivedFuel(s)
	if err := e.validate(s); err != nil {
		return nil, err
	}
	return e.dueParts(s)
}

func withDerivedFuel(s vehicle.Snapshot) vehicle.Snapshot {
	if s.FuelType == "" {
		s.FuelType = vehicle.DefaultFuelType(s.Class)
	}
	return s
}

func (e *Engine) validate(s vehicle.Snapshot) error {
	if !s.Class.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownVehicleClass, s.Class)
	}
	if !s.FuelType.Valid() {
		return fmt.Errorf("%w: unknown fuel type %q", ErrInvalidSnapshot, s.FuelType)
	}
	if s.OdometerKm < 0 {
		return fmt.Errorf("%w: odometer_km must be non-negative", ErrInvalidSnapshot)
	}
	if s.LastServiceOdometerKm < 0 {
		return fmt.Errorf("%w: last_service_odometer_km must be non-negative", ErrInvalidSnapshot)
	}
	if s.LastServiceOdometerKm > s.OdometerKm {
		return fmt.Errorf("%w: last_service_odometer_km exceeds odometer_km", ErrInvalidSnapshot)
	}
	if s.LastAlignmentOdometerKm < 0 || s.LastAlignmentOdometerKm > s.OdometerKm {
		return fmt.Errorf("%w: last_alignment_odometer_km out of range", ErrInvalidSnapshot)
	}
	if s.LastPressureCheckOdometerKm < 0 || s.LastPressureCheckOdometerKm > s.OdometerKm {
		return fmt.Errorf("%w: last_pressure_check_odometer_km out of range", ErrInvalidSnapshot)
	}
	if s.LastTyreChangeOdometerKm < 0 || s.LastTyreChangeOdometerKm > s.OdometerKm {
		return fmt.Errorf("%w: last_tyre_change_odometer_km out of range", ErrInvalidSnapshot)
	}
	if year := s.ManufactureYear; year < minManufactureYear || year > e.now().Year() {
		return fmt.Errorf("%w: manufacture_year %d out of range", ErrInvalidSnapshot, year)
	}
	if s.AlignmentHabit != "" && !s.AlignmentHabit.Valid() {
		return fmt.Errorf("%w: unknown alignment_habit %q", ErrInvalidSnapshot, s.AlignmentHabit)
	}
	if s.PressureCheckHabit != "" && !s.PressureCheckHabit.Valid() {
		return fmt.Errorf("%w: unknown pressure_check_habit %q", ErrInvalidSnapshot, s.PressureCheckHabit)
	}
	if s.Location.District != "" && !vehicle.ValidDistrict(s.Location.District) {
		return fmt.Errorf("%w: unknown district %q", ErrInvalidSnapshot, s.Location.District)
	}
	if s.Weather != nil && !s.Weather.Condition.Valid() {
		return fmt.Errorf("%w: unknown weather condition %q", ErrInvalidSnapshot, s.Weather.Condition)
	}
	for i, trip := range s.RecentTrips {
		if trip.DistanceKm < 0 {
			return fmt.Errorf("%w: trip %d has negative distance", ErrInvalidSnapshot, i)
		}
		for _, road := range trip.RoadTypes {
			if !road.Valid() {
				return fmt.Errorf("%w: trip %d has unknown road type %q", ErrInvalidSnapshot, i, road)
			}
		}
	}
	for i, part := range s.RecentlyReplacedParts {
		if part.Name == "" {
			return fmt.Errorf("%w: replaced part %d has no name", ErrInvalidSnapshot, i)
		}
		if part.OdometerKm != nil && (*part.OdometerKm < 0 || *part.OdometerKm > s.OdometerKm) {
			return fmt.Errorf("%w: replaced part %q has odometer out of range", ErrInvalidSnapshot, part.Name)
		}
	}
	return nil
}

// serviceStage penalizes overdue scheduled services, with a second tier past
// 1.5x the class interval.
func (e *Engine) serviceStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	interval := e.rules.ServiceIntervalKm(s.Class)
	kmSince := s.OdometerKm - s.LastServiceOdometerKm
	if kmSince < interval {
		return 0
	}

	a.Flags = append(a.Flags, vehicle.FlagServiceOverdue)
	penalty := e.weights.ServicePenalty
	a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
		Label:     fmt.Sprintf("Service overdue (%d km since last service)", kmSince),
		Magnitude: penalty,
	})

	if float64(kmSince) >= e.weights.ServiceLateFactor*float64(interval) {
		penalty += e.weights.ServiceLatePenalty
		a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
			Label:     "Service severely overdue",
			Magnitude: e.weights.ServiceLatePenalty,
		})
	}
	return penalty
}

// checkStage covers wheel alignment for cars and tyre-pressure checks for
// two/three-wheelers, scaled by the owner's stated habit.
func (e *Engine) checkStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	var (
		kmSince  int
		interval int
		habit    vehicle.Habit
		label    string
	)
	if s.Class.TwoOrThreeWheeler() {
		kmSince = s.OdometerKm - s.LastPressureCheckOdometerKm
		interval = e.weights.PressureIntervalKm
		habit = s.PressureCheckHabit
		label = "Tyre pressure check overdue"
	} else {
		kmSince = s.OdometerKm - s.LastAlignmentOdometerKm
		interval = e.weights.AlignmentIntervalKm
		habit = s.AlignmentHabit
		label = "Wheel alignment overdue"
	}
	if kmSince < interval {
		return 0
	}

	factor := 1.0
	if f, ok := e.weights.HabitPenaltyFactor[habit]; ok {
		factor = f
	}
	penalty := int(math.Round(float64(e.weights.CheckBasePenalty) * factor))

	a.Flags = append(a.Flags, vehicle.FlagAlignmentOverdue)
	a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
		Label:     label,
		Magnitude: penalty,
	})
	return penalty
}

// tyreStage classifies effective tyre distance. Road exposure contributes the
// single worst severity weight seen across all trips, never a sum, so a
// recurring mountain commute is not double counted.
func (e *Engine) tyreStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	multiplier := 1.0

	maxSeverity := 0.0
	for _, trip := range s.RecentTrips {
		for _, road := range trip.RoadTypes {
			if w := e.weights.RoadSeverity[road]; w > maxSeverity {
				maxSeverity = w
			}
		}
	}
	multiplier += maxSeverity

	habit := s.AlignmentHabit
	if s.Class.TwoOrThreeWheeler() {
		habit = s.PressureCheckHabit
	}
	multiplier += e.weights.TyreHabitBump[habit]

	if s.Class == vehicle.ClassElectric {
		multiplier += e.weights.ElectricTyreBump
	}

	effectiveKm := int(math.Round(float64(s.OdometerKm-s.LastTyreChangeOdometerKm) * multiplier))
	switch {
	case effectiveKm < e.weights.TyreFairKm:
		return 0
	case effectiveKm < e.weights.TyreDangerousKm:
		a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
			Label:     fmt.Sprintf("Tyre wear fair (effective %d km)", effectiveKm),
			Magnitude: e.weights.TyreFairPenalty,
		})
		return e.weights.TyreFairPenalty
	default:
		a.Flags = append(a.Flags, vehicle.FlagTyreWearHigh)
		a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
			Label:     fmt.Sprintf("Tyre wear dangerous (effective %d km)", effectiveKm),
			Magnitude: e.weights.TyreDangerousPenalty,
		})
		return e.weights.TyreDangerousPenalty
	}
}

// exposureStage applies road-type penalties once per distinct road type across
// all recent trips, plus weather penalties from the caller-supplied context.
func (e *Engine) exposureStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	seen := map[vehicle.RoadType]bool{}
	for _, trip := range s.RecentTrips {
		for _, road := range trip.RoadTypes {
			seen[road] = true
		}
	}

	total := 0
	// Fixed iteration order keeps the factor list deterministic.
	for _, road := range []vehicle.RoadType{
		vehicle.RoadCarpeted,
		vehicle.RoadCityTraffic,
		vehicle.RoadPotholesRough,
		vehicle.RoadMountainSlope,
		vehicle.RoadSlipperyMuddy,
	} {
		if !seen[road] {
			continue
		}
		penalty := e.weights.RoadPenalty[road]
		if penalty == 0 {
			continue
		}
		total += penalty
		a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
			Label:     fmt.Sprintf("Road exposure: %s", road),
			Magnitude: penalty,
		})
	}

	if s.Weather != nil {
		if s.Weather.Condition == vehicle.WeatherRain || s.Weather.Condition == vehicle.WeatherStorm {
			total += e.weights.WeatherPenalty
			a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
				Label:     fmt.Sprintf("Adverse weather: %s", s.Weather.Condition),
				Magnitude: e.weights.WeatherPenalty,
			})
		}
		if s.Weather.WindKmh > e.weights.WindThresholdKmh {
			total += e.weights.WindPenalty
			a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
				Label:     "High wind",
				Magnitude: e.weights.WindPenalty,
			})
		}
	}
	return total
}

// stagnationStage flags vehicles left idle between recorded trips, a
// fuel/battery degradation risk.
func (e *Engine) stagnationStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	var dates []time.Time
	for _, trip := range s.RecentTrips {
		if trip.Date != nil {
			dates = append(dates, *trip.Date)
		}
	}
	if len(dates) < 2 {
		return 0
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	maxGap := time.Duration(e.weights.StagnationGapDays) * 24 * time.Hour
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) > maxGap {
			a.Flags = append(a.Flags, vehicle.FlagStagnationDetected)
			a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
				Label:     "Long idle gap between trips",
				Magnitude: e.weights.StagnationPenalty,
			})
			return e.weights.StagnationPenalty
		}
	}
	return 0
}

// creditStage subtracts credits for recently replaced safety-relevant parts.
// Applied last; only the final sum is clamped, so credits can offset earlier
// contributions but never drive the score below zero.
func (e *Engine) creditStage(s vehicle.Snapshot, a *vehicle.Assessment) int {
	total := 0
	for _, part := range s.RecentlyReplacedParts {
		category, ok := classifyPart(part.Name)
		if !ok {
			continue
		}
		credit := e.weights.PartCredits[category]
		if credit == 0 {
			continue
		}
		total -= credit
		a.ContributingFactors = append(a.ContributingFactors, vehicle.Factor{
			Label:     fmt.Sprintf("Recently replaced: %s", part.Name),
			Magnitude: -credit,
		})
	}
	return total
}

func classifyPart(name string) (PartCategory, bool) {
	normalized := utils.NormalizePart(name)
	switch {
	case strings.Contains(normalized, "tyre") || strings.Contains(normalized, "tire"):
		return CategoryTyres, true
	case strings.Contains(normalized, "brake"):
		return CategoryBrakes, true
	case strings.Contains(normalized, "battery"):
		return CategoryBattery, true
	}
	return "", false
}

func (e *Engine) dueParts(s vehicle.Snapshot) ([]vehicle.DuePart, error) {
	rules, ok := e.rules.TableFor(s.Class, s.FuelType)
	if !ok {
		return nil, fmt.Errorf("%w: no rule table for %s/%s", ErrUnknownVehicleClass, s.Class, s.FuelType)
	}

	kmSinceService := s.OdometerKm - s.LastServiceOdometerKm
	due := make([]vehicle.DuePart, 0, len(rules))
	for _, rule := range rules {
		fires, rationale := ruleFires(rule, s, kmSinceService)
		if !fires {
			continue
		}
		due = append(due, vehicle.DuePart{
			PartName:      rule.PartName,
			Urgency:       rule.Urgency,
			EstimatedCost: rule.BaseCostLKR,
			Rationale:     rationale,
		})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Urgency.Rank() != due[j].Urgency.Rank() {
			return due[i].Urgency.Rank() > due[j].Urgency.Rank()
		}
		return due[i].PartName < due[j].PartName
	})
	return due, nil
}

// ruleFires applies the service-anchored interval check, re-anchoring to the
// recorded replacement odometer when the part was recently replaced. A
// replacement without a recorded odometer suppresses the rule entirely.
func ruleFires(rule Rule, s vehicle.Snapshot, kmSinceService int) (bool, string) {
	for _, replaced := range s.RecentlyReplacedParts {
		if !utils.PartsMatch(rule.PartName, replaced.Name) {
			continue
		}
		if replaced.OdometerKm == nil {
			return false, ""
		}
		kmSinceReplacement := s.OdometerKm - *replaced.OdometerKm
		if kmSinceReplacement >= rule.IntervalKm {
			return true, fmt.Sprintf("interval of %d km exceeded since replacement", rule.IntervalKm)
		}
		return false, ""
	}

	if kmSinceService >= rule.IntervalKm {
		return true, fmt.Sprintf("service interval of %d km exceeded", rule.IntervalKm)
	}
	return false, ""
}

func (e *Engine) levelFor(score int) vehicle.RiskLevel {
	switch {
	case score < e.weights.CutLow:
		return vehicle.RiskLow
	case score < e.weights.CutModerate:
		return vehicle.RiskModerate
	case score < e.weights.CutHigh:
		return vehicle.RiskHigh
	default:
		return vehicle.RiskCritical
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
