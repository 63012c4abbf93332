package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// Seeds the diagnosis API with randomized vehicle snapshots. Useful for
// filling a fresh environment with believable assessment history:
//
//	go run seed_diagnoses.go -base http://localhost:8080 -count 25 -token $TOKEN

type snapshot struct {
	VehicleClass             string   `json:"vehicle_class"`
	ManufactureYear          int      `json:"manufacture_year"`
	OdometerKm               int      `json:"odometer_km"`
	LastServiceOdometerKm    int      `json:"last_service_odometer_km"`
	LastAlignmentOdometerKm  int      `json:"last_alignment_odometer_km,omitempty"`
	LastPressureOdometerKm   int      `json:"last_pressure_check_odometer_km,omitempty"`
	LastTyreChangeOdometerKm int      `json:"last_tyre_change_odometer_km"`
	AlignmentHabit           string   `json:"alignment_habit,omitempty"`
	PressureCheckHabit       string   `json:"pressure_check_habit,omitempty"`
	RecentTrips              []trip   `json:"recent_trips,omitempty"`
	Location                 location `json:"location"`
}

type trip struct {
	DistanceKm float64  `json:"distance_km"`
	RoadTypes  []string `json:"road_types"`
}

type location struct {
	District string `json:"district"`
}

var (
	classes   = []string{"Car", "Hybrid", "ElectricVehicle", "Motorbike", "ThreeWheeler"}
	habits    = []string{"Regular", "Occasional", "Rarely"}
	roadTypes = []string{"Carpeted", "CityTraffic", "PotholesRough", "MountainSlopes", "SlipperyMuddy"}
	districts = []string{"Colombo", "Gampaha", "Kandy", "Galle", "Matara", "Kurunegala", "Jaffna", "Badulla"}
)

func randomSnapshot(rng *rand.Rand) snapshot {
	odometer := 20000 + rng.Intn(120000)
	lastService := odometer - rng.Intn(15000)
	lastTyres := odometer - rng.Intn(45000)
	if lastTyres < 0 {
		lastTyres = 0
	}

	s := snapshot{
		VehicleClass:             classes[rng.Intn(len(classes))],
		ManufactureYear:          2005 + rng.Intn(20),
		OdometerKm:               odometer,
		LastServiceOdometerKm:    lastService,
		LastTyreChangeOdometerKm: lastTyres,
		AlignmentHabit:           habits[rng.Intn(len(habits))],
		PressureCheckHabit:       habits[rng.Intn(len(habits))],
		Location:                 location{District: districts[rng.Intn(len(districts))]},
	}

	if s.VehicleClass == "Motorbike" || s.VehicleClass == "ThreeWheeler" {
		s.LastPressureOdometerKm = odometer - rng.Intn(3000)
	} else {
		s.LastAlignmentOdometerKm = odometer - rng.Intn(12000)
	}

	for i := 0; i < 1+rng.Intn(4); i++ {
		s.RecentTrips = append(s.RecentTrips, trip{
			DistanceKm: 5 + rng.Float64()*200,
			RoadTypes:  []string{roadTypes[rng.Intn(len(roadTypes))]},
		})
	}

	return s
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "service base URL")
	count := flag.Int("count", 10, "number of diagnoses to run")
	token := flag.String("token", os.Getenv("SEED_TOKEN"), "bearer access token")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "a bearer token is required (-token or SEED_TOKEN)")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	client := &http.Client{Timeout: 90 * time.Second}

	ok, failed := 0, 0
	for i := 0; i < *count; i++ {
		snap := randomSnapshot(rng)
		body, err := json.Marshal(snap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal snapshot: %v\n", err)
			os.Exit(1)
		}

		req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/diagnosis", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "build request: %v\n", err)
			os.Exit(1)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*token)

		resp, err := client.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] request failed: %v\n", i+1, *count, err)
			failed++
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s -> %d: %s\n", i+1, *count, snap.VehicleClass, resp.StatusCode, string(respBody))
			failed++
			continue
		}

		var result struct {
			Assessment struct {
				RiskScore int    `json:"risk_score"`
				RiskLevel string `json:"risk_level"`
			} `json:"assessment"`
		}
		_ = json.Unmarshal(respBody, &result)
		fmt.Printf("[%d/%d] %s at %d km -> score %d (%s)\n",
			i+1, *count, snap.VehicleClass, snap.OdometerKm,
			result.Assessment.RiskScore, result.Assessment.RiskLevel)
		ok++
	}

	fmt.Printf("done: %d succeeded, %d failed\n", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
