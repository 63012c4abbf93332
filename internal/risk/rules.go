package risk

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vehicle-bot/internal/domain/vehicle"
)

//go:embed tables.yaml
var defaultTables []byte

// Rule is one row of a maintenance rule table: a part becomes due when the
// distance since the last service reaches IntervalKm.
type Rule struct {
	PartName    string          `yaml:"part_name" json:"part_name"`
	IntervalKm  int             `yaml:"interval_km" json:"interval_km"`
	BaseCostLKR float64         `yaml:"base_cost_lkr" json:"base_cost_lkr"`
	Urgency     vehicle.Urgency `yaml:"urgency_tier" json:"urgency_tier"`
}

type ruleTable struct {
	Class    vehicle.Class    `yaml:"vehicle_class"`
	FuelType vehicle.FuelType `yaml:"fuel_type"`
	Rules    []Rule           `yaml:"rules"`
}

type rulesFile struct {
	ServiceIntervalsKm map[vehicle.Class]int `yaml:"service_intervals_km"`
	Tables             []ruleTable           `yaml:"tables"`
}

// RuleSet holds the loaded, validated rule tables. Loaded once at process
// start and read-only thereafter, so it is safe to share across requests.
type RuleSet struct {
	serviceIntervals map[vehicle.Class]int
	tables           map[tableKey][]Rule
}

type tableKey struct {
	class vehicle.Class
	fuel  vehicle.FuelType
}

func keyFor(class vehicle.Class, fuel vehicle.FuelType) tableKey {
	// Only four-wheeled classes are split by fuel type.
	if class.TwoOrThreeWheeler() {
		return tableKey{class: class}
	}
	return tableKey{class: class, fuel: fuel}
}

// LoadDefaultRules parses the rule tables embedded in the binary.
func LoadDefaultRules() (*RuleSet, error) {
	return parseRules(defaultTables)
}

// LoadRulesFile parses rule tables from an external YAML file, allowing
// pricing and intervals to be updated without redeploying.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*RuleSet, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule tables: %w", err)
	}

	rs := &RuleSet{
		serviceIntervals: make(map[vehicle.Class]int),
		tables:           make(map[tableKey][]Rule),
	}

	for class, interval := range file.ServiceIntervalsKm {
		if !class.Valid() {
			return nil, fmt.Errorf("service interval for unknown vehicle class %q", class)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("service interval for %s must be positive, got %d", class, interval)
		}
		rs.serviceIntervals[class] = interval
	}

	for _, table := range file.Tables {
		if !table.Class.Valid() {
			return nil, fmt.Errorf("rule table for unknown vehicle class %q", table.Class)
		}
		if !table.Class.TwoOrThreeWheeler() && !table.FuelType.Valid() {
			return nil, fmt.Errorf("rule table for %s is missing a fuel type", table.Class)
		}
		key := keyFor(table.Class, table.FuelType)
		if _, exists := rs.tables[key]; exists {
			return nil, fmt.Errorf("duplicate rule table for %s/%s", table.Class, table.FuelType)
		}
		for _, rule := range table.Rules {
			if rule.PartName == "" {
				return nil, fmt.Errorf("rule table %s/%s has a rule without a part name", table.Class, table.FuelType)
			}
			if rule.IntervalKm <= 0 {
				return nil, fmt.Errorf("rule %q: interval_km must be positive, got %d", rule.PartName, rule.IntervalKm)
			}
			if rule.BaseCostLKR <= 0 {
				return nil, fmt.Errorf("rule %q: base_cost_lkr must be positive", rule.PartName)
			}
			if !rule.Urgency.Valid() {
				return nil, fmt.Errorf("rule %q: unknown urgency tier %q", rule.PartName, rule.Urgency)
			}
		}
		rs.tables[key] = table.Rules
	}

	if len(rs.tables) == 0 {
		return nil, fmt.Errorf("no rule tables defined")
	}
	return rs, nil
}

// TableFor returns the rule table for a class and fuel type, or false when the
// configuration has no matching partition.
func (rs *RuleSet) TableFor(class vehicle.Class, fuel vehicle.FuelType) ([]Rule, bool) {
	rules, ok := rs.tables[keyFor(class, fuel)]
	return rules, ok
}

// ServiceIntervalKm returns the class-specific service interval, falling back
// to 8000 km when the class has no entry.
func (rs *RuleSet) ServiceIntervalKm(class vehicle.Class) int {
	if interval, ok := rs.serviceIntervals[class]; ok {
		return interval
	}
	return 8000
}
