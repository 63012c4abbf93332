package risk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-bot/internal/domain/vehicle"
)

func TestLoadDefaultRulesCoversEveryClass(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)

	cases := []struct {
		class vehicle.Class
		fuel  vehicle.FuelType
	}{
		{vehicle.ClassCar, vehicle.FuelPetrol},
		{vehicle.ClassCar, vehicle.FuelDiesel},
		{vehicle.ClassHybrid, vehicle.FuelHybrid},
		{vehicle.ClassElectric, vehicle.FuelElectric},
		{vehicle.ClassMotorbike, ""},
		{vehicle.ClassThreeWheeler, ""},
	}
	for _, c := range cases {
		rules, ok := rs.TableFor(c.class, c.fuel)
		require.True(t, ok, "missing rule table for %s/%s", c.class, c.fuel)
		require.NotEmpty(t, rules)
	}
}

func TestDefaultRulesPartitionInvariant(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)

	// Combustion-only parts must never leak into the electric partition.
	evRules, ok := rs.TableFor(vehicle.ClassElectric, vehicle.FuelElectric)
	require.True(t, ok)
	for _, rule := range evRules {
		lower := strings.ToLower(rule.PartName)
		if strings.Contains(lower, "engine oil") || strings.Contains(lower, "spark plug") || strings.Contains(lower, "glow plug") {
			t.Errorf("combustion part %q present in ElectricVehicle table", rule.PartName)
		}
	}
}

func TestServiceIntervalsPerClass(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)

	tests := []struct {
		class vehicle.Class
		want  int
	}{
		{vehicle.ClassCar, 8000},
		{vehicle.ClassHybrid, 8000},
		{vehicle.ClassElectric, 10000},
		{vehicle.ClassMotorbike, 3000},
		{vehicle.ClassThreeWheeler, 5000},
	}
	for _, tt := range tests {
		if got := rs.ServiceIntervalKm(tt.class); got != tt.want {
			t.Errorf("ServiceIntervalKm(%s) = %d, want %d", tt.class, got, tt.want)
		}
	}
}

func TestLoadRulesFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
service_intervals_km:
  Motorbike: 2500
tables:
  - vehicle_class: Motorbike
    rules:
      - { part_name: "Engine Oil (1L)", interval_km: 2500, base_cost_lkr: 3000, urgency_tier: Critical }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Equal(t, 2500, rs.ServiceIntervalKm(vehicle.ClassMotorbike))

	rules, ok := rs.TableFor(vehicle.ClassMotorbike, "")
	require.True(t, ok)
	require.Len(t, rules, 1)
}

func TestParseRulesRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown class",
			yaml: `
tables:
  - vehicle_class: Spaceship
    rules:
      - { part_name: "Thruster", interval_km: 1000, base_cost_lkr: 1, urgency_tier: Low }
`,
		},
		{
			name: "car table without fuel type",
			yaml: `
tables:
  - vehicle_class: Car
    rules:
      - { part_name: "Engine Oil", interval_km: 8000, base_cost_lkr: 14500, urgency_tier: Critical }
`,
		},
		{
			name: "non-positive interval",
			yaml: `
tables:
  - vehicle_class: Motorbike
    rules:
      - { part_name: "Engine Oil (1L)", interval_km: 0, base_cost_lkr: 2800, urgency_tier: Critical }
`,
		},
		{
			name: "unknown urgency",
			yaml: `
tables:
  - vehicle_class: Motorbike
    rules:
      - { part_name: "Engine Oil (1L)", interval_km: 3000, base_cost_lkr: 2800, urgency_tier: Severe }
`,
		},
		{
			name: "duplicate partition",
			yaml: `
tables:
  - vehicle_class: Motorbike
    rules:
      - { part_name: "Engine Oil (1L)", interval_km: 3000, base_cost_lkr: 2800, urgency_tier: Critical }
  - vehicle_class: Motorbike
    rules:
      - { part_name: "Spark Plug", interval_km: 5000, base_cost_lkr: 850, urgency_tier: High }
`,
		},
		{
			name: "no tables",
			yaml: `service_intervals_km: { Car: 8000 }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRules([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
