package estimate

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/models"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func snapshot(mutate func(*models.EnvironmentalSnapshot)) *models.EnvironmentalSnapshot {
	env := &models.EnvironmentalSnapshot{
		Weather: models.WeatherData{
			PrecipitationProbability: 30,
			RainAccumulation7d:       10,
			CurrentTemp:              15,
		},
		Soil: models.SoilData{
			ClayContent: 25,
			SandContent: 40,
			SiltContent: 35,
			Drainage:    models.DrainageGood,
			Sensitivity: models.SensitivityMedium,
		},
		Terrain: models.TerrainData{
			Altitude:   200,
			Slope:      5,
			Difficulty: models.DifficultyMedium,
		},
		Season:      models.SeasonSummer,
		RetrievedAt: time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(env)
	}
	return env
}

// mormal is the reference chantier used across the pipeline tests.
func mormal() models.ChantierInput {
	return models.ChantierInput{
		Name:              "Mormal",
		Client:            "ONF",
		Type:              models.BillingPerVolume,
		InvoicedPrice:     30000,
		Volume:            8000,
		TransportDistance: 50,
		HaulingDistance:   250,
		Dispersion:        models.DispersionMedium,
		Density:           models.DensityMedium,
		Regrowth:          models.RegrowthRecent,
		Environment:       snapshot(nil),
	}
}

// TestEstimateTime_Mormal walks the reference scenario through the time
// formulas: good drainage, 5% slope, 30% rain probability.
func TestEstimateTime_Mormal(t *testing.T) {
	got, err := EstimateTime(mormal(), coeff.DefaultRates())
	if err != nil {
		t.Fatalf("EstimateTime() error = %v", err)
	}

	// payload 12*0.95 = 11.4 m³ -> ceil(8000/11.4) = 702 trips
	if got.RoundTrips != 702 {
		t.Errorf("RoundTrips = %d, want 702", got.RoundTrips)
	}
	// speed 3.5*0.9*0.85*0.95 = 2.543625 -> 2.5 displayed
	nearlyEqual(t, "AvgSpeed", got.AvgSpeed, 2.5)
	// cycle (0.5/2.543625 + 10/60) * 1.2 = 0.4358838 h -> 26 min
	nearlyEqual(t, "CycleMinutes", got.CycleMinutes, 26)
	nearlyEqual(t, "SetupHours", got.SetupHours, 2)
	nearlyEqual(t, "HaulingHours", got.HaulingHours, 306.0)
	nearlyEqual(t, "TotalHours", got.TotalHours, 308.0)
}

// TestEstimateTime_RoundTripsCeiling verifies the trip count is an integer
// ceiling, never rounded down.
func TestEstimateTime_RoundTripsCeiling(t *testing.T) {
	chantier := mormal()
	chantier.Volume = 11.5 // just above one effective payload of 11.4 m³
	got, err := EstimateTime(chantier, coeff.DefaultRates())
	if err != nil {
		t.Fatalf("EstimateTime() error = %v", err)
	}
	if got.RoundTrips != 2 {
		t.Errorf("RoundTrips = %d, want 2 for 11.5 m³ over an 11.4 m³ payload", got.RoundTrips)
	}

	chantier.Volume = 5
	got, _ = EstimateTime(chantier, coeff.DefaultRates())
	if got.RoundTrips != 1 {
		t.Errorf("RoundTrips = %d, want 1 for a partial load", got.RoundTrips)
	}
}

// TestCalculateCosts_Mormal checks the four components and that the total is
// the sum of the individually rounded components.
func TestCalculateCosts_Mormal(t *testing.T) {
	got, err := CalculateCosts(mormal(), coeff.DefaultRates())
	if err != nil {
		t.Fatalf("CalculateCosts() error = %v", err)
	}

	nearlyEqual(t, "Transport", got.Transport, 1500) // 50 km * 15 €/km * 2
	// 308 h * 12*1.1*1.15*1.05 L/h * 1.65 €/L = 8100.1998
	nearlyEqual(t, "Fuel", got.Fuel, 8100)
	nearlyEqual(t, "Machine", got.Machine, 12320) // 308 h * 40 €/h
	// 308 h * 25*1.5 €/h + 50 €
	nearlyEqual(t, "Labor", got.Labor, 11600)
	nearlyEqual(t, "Total", got.Total, 33520)
}

// TestCalculateCosts_TotalIsSumOfRoundedComponents guards the rounding
// contract across a spread of inputs.
func TestCalculateCosts_TotalIsSumOfRoundedComponents(t *testing.T) {
	for _, volume := range []float64{50, 333, 1200, 8000} {
		chantier := mormal()
		chantier.Volume = volume
		got, err := CalculateCosts(chantier, coeff.DefaultRates())
		if err != nil {
			t.Fatalf("CalculateCosts(volume=%v) error = %v", volume, err)
		}
		sum := got.Transport + got.Fuel + got.Machine + got.Labor
		if got.Total != sum {
			t.Errorf("volume %v: Total = %v, want component sum %v", volume, got.Total, sum)
		}
		for name, v := range map[string]float64{"Transport": got.Transport, "Fuel": got.Fuel, "Machine": got.Machine, "Labor": got.Labor} {
			if v < 0 {
				t.Errorf("volume %v: %s = %v, want non-negative", volume, name, v)
			}
			if v != math.Round(v) {
				t.Errorf("volume %v: %s = %v, want a whole euro amount", volume, name, v)
			}
		}
	}
}

// TestPipeline_Determinism verifies that all calculators return identical
// output on repeated invocations of the same input.
func TestPipeline_Determinism(t *testing.T) {
	chantier := mormal()
	rates := coeff.DefaultRates()

	first, err := CalculateResult(chantier, rates)
	if err != nil {
		t.Fatalf("CalculateResult() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := CalculateResult(chantier, rates)
		if err != nil {
			t.Fatalf("CalculateResult() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst = %+v\nagain = %+v", i, first, again)
		}
	}
}

// TestPipeline_SlopeMonotonicity verifies that steepening the slope from 4%
// to 16% never decreases total time, fuel cost or risk score.
func TestPipeline_SlopeMonotonicity(t *testing.T) {
	rates := coeff.DefaultRates()

	gentle := mormal()
	gentle.Environment = snapshot(func(env *models.EnvironmentalSnapshot) { env.Terrain.Slope = 4 })
	steep := mormal()
	steep.Environment = snapshot(func(env *models.EnvironmentalSnapshot) { env.Terrain.Slope = 16 })

	gentleRes, err := CalculateResult(gentle, rates)
	if err != nil {
		t.Fatalf("CalculateResult(gentle) error = %v", err)
	}
	steepRes, err := CalculateResult(steep, rates)
	if err != nil {
		t.Fatalf("CalculateResult(steep) error = %v", err)
	}

	if steepRes.Time.TotalHours < gentleRes.Time.TotalHours {
		t.Errorf("TotalHours decreased with slope: %v -> %v", gentleRes.Time.TotalHours, steepRes.Time.TotalHours)
	}
	if steepRes.Costs.Fuel < gentleRes.Costs.Fuel {
		t.Errorf("Fuel decreased with slope: %v -> %v", gentleRes.Costs.Fuel, steepRes.Costs.Fuel)
	}
	if steepRes.Risk.ScoreTotal < gentleRes.Risk.ScoreTotal {
		t.Errorf("ScoreTotal decreased with slope: %v -> %v", gentleRes.Risk.ScoreTotal, steepRes.Risk.ScoreTotal)
	}
}

// TestCalculateResult_MarginIdentity verifies margin == price - total cost
// and the one-decimal margin percent for a spread of prices.
func TestCalculateResult_MarginIdentity(t *testing.T) {
	rates := coeff.DefaultRates()
	for _, price := range []float64{12000, 30000, 45000.50, 90000} {
		chantier := mormal()
		chantier.InvoicedPrice = price
		got, err := CalculateResult(chantier, rates)
		if err != nil {
			t.Fatalf("CalculateResult(price=%v) error = %v", price, err)
		}
		nearlyEqual(t, "Margin", got.Margin, price-got.Costs.Total)
		nearlyEqual(t, "MarginPercent", got.MarginPercent, math.Round(got.Margin/price*100*10)/10)
	}
}

// TestCalculateResult_Mormal pins the end-to-end reference numbers.
func TestCalculateResult_Mormal(t *testing.T) {
	got, err := CalculateResult(mormal(), coeff.DefaultRates())
	if err != nil {
		t.Fatalf("CalculateResult() error = %v", err)
	}

	nearlyEqual(t, "Costs.Total", got.Costs.Total, 33520)
	nearlyEqual(t, "Margin", got.Margin, -3520)
	nearlyEqual(t, "MarginPercent", got.MarginPercent, -11.7)
	if got.Recommendation.Band != models.MarginNonProfitable {
		t.Errorf("Band = %q, want %q", got.Recommendation.Band, models.MarginNonProfitable)
	}
	if got.Recommendation.Decision != models.DecisionRefuse {
		t.Errorf("Decision = %q, want %q for a negative margin", got.Recommendation.Decision, models.DecisionRefuse)
	}
	if got.OptimalPeriod != "May - September" {
		t.Errorf("OptimalPeriod = %q, want default window", got.OptimalPeriod)
	}
}

// TestPrecondition_MissingSnapshot verifies every calculator rejects an
// input without environmental data.
func TestPrecondition_MissingSnapshot(t *testing.T) {
	chantier := mormal()
	chantier.Environment = nil
	rates := coeff.DefaultRates()

	if _, err := EstimateTime(chantier, rates); !errors.Is(err, ErrMissingEnvironment) {
		t.Errorf("EstimateTime() error = %v, want ErrMissingEnvironment", err)
	}
	if _, err := CalculateCosts(chantier, rates); !errors.Is(err, ErrMissingEnvironment) {
		t.Errorf("CalculateCosts() error = %v, want ErrMissingEnvironment", err)
	}
	if _, err := ScoreRisk(chantier); !errors.Is(err, ErrMissingEnvironment) {
		t.Errorf("ScoreRisk() error = %v, want ErrMissingEnvironment", err)
	}
	if _, err := CalculateResult(chantier, rates); !errors.Is(err, ErrMissingEnvironment) {
		t.Errorf("CalculateResult() error = %v, want ErrMissingEnvironment", err)
	}
}
