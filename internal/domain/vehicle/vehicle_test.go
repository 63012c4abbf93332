package vehicle

import "testing"

func TestClassValid(t *testing.T) {
	for _, c := range AllClasses() {
		if !c.Valid() {
			t.Errorf("class %q should be valid", c)
		}
	}
	if Class("Hovercraft").Valid() {
		t.Error("unknown class should be invalid")
	}
}

func TestDefaultFuelType(t *testing.T) {
	tests := []struct {
		class Class
		want  FuelType
	}{
		{ClassCar, FuelPetrol},
		{ClassHybrid, FuelHybrid},
		{ClassElectric, FuelElectric},
		{ClassMotorbike, FuelPetrol},
		{ClassThreeWheeler, FuelPetrol},
	}
	for _, tt := range tests {
		if got := DefaultFuelType(tt.class); got != tt.want {
			t.Errorf("DefaultFuelType(%s) = %s, want %s", tt.class, got, tt.want)
		}
	}
}

func TestUrgencyRankOrdering(t *testing.T) {
	if !(UrgencyCritical.Rank() > UrgencyHigh.Rank() &&
		UrgencyHigh.Rank() > UrgencyModerate.Rank() &&
		UrgencyModerate.Rank() > UrgencyLow.Rank()) {
		t.Error("urgency ranks out of order")
	}
}

func TestDistricts(t *testing.T) {
	if len(Districts) != 25 {
		t.Fatalf("expected 25 districts, got %d", len(Districts))
	}
	if !ValidDistrict("Nuwara Eliya") {
		t.Error("Nuwara Eliya should be a valid district")
	}
	if ValidDistrict("colombo") {
		t.Error("district matching is case sensitive")
	}
}
