package estimate

import (
	"strings"
	"testing"

	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/models"
)

// TestScoreRisk_Mormal covers the reference scenario: moderate weather on
// good soil in summer, no factors triggered.
func TestScoreRisk_Mormal(t *testing.T) {
	got, err := ScoreRisk(mormal())
	if err != nil {
		t.Fatalf("ScoreRisk() error = %v", err)
	}

	// weather 0.7*30 + 0.3*(10/30*100) = 31
	nearlyEqual(t, "ScoreWeather", got.ScoreWeather, 31)
	nearlyEqual(t, "ScoreSoil", got.ScoreSoil, 30)
	nearlyEqual(t, "ScoreSlope", got.ScoreSlope, 30)
	nearlyEqual(t, "ScoreSeason", got.ScoreSeason, 20)
	// 31*0.35 + 30*0.25 + 30*0.2 + 20*0.2 = 28.35 -> 28
	nearlyEqual(t, "ScoreTotal", got.ScoreTotal, 28)
	if len(got.Factors) != 0 {
		t.Errorf("Factors = %v, want none", got.Factors)
	}
	if got.Level != models.RiskLow {
		t.Errorf("Level = %q, want %q", got.Level, models.RiskLow)
	}
}

// highRiskChantier is the worst-case scenario: poor drainage, clay, steep
// slope, near-certain rain, winter.
func highRiskChantier() models.ChantierInput {
	chantier := mormal()
	chantier.Density = models.DensityHigh
	chantier.Regrowth = models.RegrowthOld
	chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
		env.Weather.PrecipitationProbability = 85
		env.Weather.RainAccumulation7d = 60
		env.Soil.ClayContent = 38
		env.Soil.Drainage = models.DrainagePoor
		env.Soil.Sensitivity = models.SensitivityHigh
		env.Terrain.Slope = 18
		env.Season = models.SeasonWinter
	})
	return chantier
}

// TestScoreRisk_HighRiskClampsAt100 verifies that with every combination
// bonus triggered the total clamps at 100 and all factors are reported.
func TestScoreRisk_HighRiskClampsAt100(t *testing.T) {
	got, err := ScoreRisk(highRiskChantier())
	if err != nil {
		t.Fatalf("ScoreRisk() error = %v", err)
	}

	// weighted 89.5*0.35 + 100*0.25 + 80*0.2 + 75*0.2 = 87.325, bonuses
	// +25 +15 +15 push past the cap
	nearlyEqual(t, "ScoreTotal", got.ScoreTotal, 100)
	nearlyEqual(t, "ScoreWeather", got.ScoreWeather, 90) // 89.5 rounded
	nearlyEqual(t, "ScoreSoil", got.ScoreSoil, 100)      // 85 + 15 clay
	nearlyEqual(t, "ScoreSlope", got.ScoreSlope, 80)
	nearlyEqual(t, "ScoreSeason", got.ScoreSeason, 75)

	if len(got.Factors) != 9 {
		t.Fatalf("len(Factors) = %d, want 9: %v", len(got.Factors), got.Factors)
	}
	// Combination factors come first, in their fixed evaluation order.
	if !strings.Contains(got.Factors[0], "winter") {
		t.Errorf("Factors[0] = %q, want the winter combination first", got.Factors[0])
	}
	if !strings.Contains(got.Factors[1], "slope") {
		t.Errorf("Factors[1] = %q, want the slope/drainage combination second", got.Factors[1])
	}
	if got.Level != models.RiskCritical {
		t.Errorf("Level = %q, want %q", got.Level, models.RiskCritical)
	}
}

// TestScoreRisk_SoilPenaltiesStack verifies both clay penalties stack on the
// drainage base and cap at 100.
func TestScoreRisk_SoilPenaltiesStack(t *testing.T) {
	tests := []struct {
		name     string
		drainage models.Drainage
		clay     float64
		want     float64
	}{
		{"excellent no clay", models.DrainageExcellent, 20, 10},
		{"good single penalty", models.DrainageGood, 36, 45},
		{"good both penalties", models.DrainageGood, 41, 55},
		{"medium both penalties", models.DrainageMedium, 45, 85},
		{"poor capped", models.DrainagePoor, 45, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chantier := mormal()
			chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
				env.Soil.Drainage = tt.drainage
				env.Soil.ClayContent = tt.clay
			})
			got, err := ScoreRisk(chantier)
			if err != nil {
				t.Fatalf("ScoreRisk() error = %v", err)
			}
			nearlyEqual(t, "ScoreSoil", got.ScoreSoil, tt.want)
		})
	}
}

// TestScoreRisk_SlopeBands pins the slope step function.
func TestScoreRisk_SlopeBands(t *testing.T) {
	tests := []struct {
		slope float64
		want  float64
	}{
		{4, 10}, {5, 30}, {9.9, 30}, {10, 60}, {14.9, 60}, {15, 80}, {19.9, 80}, {20, 100}, {35, 100},
	}
	for _, tt := range tests {
		chantier := mormal()
		chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
			env.Terrain.Slope = tt.slope
		})
		got, err := ScoreRisk(chantier)
		if err != nil {
			t.Fatalf("ScoreRisk(slope=%v) error = %v", tt.slope, err)
		}
		if got.ScoreSlope != tt.want {
			t.Errorf("ScoreSlope(slope=%v) = %v, want %v", tt.slope, got.ScoreSlope, tt.want)
		}
	}
}

// TestScoreRisk_SeasonScores pins the per-season base scores.
func TestScoreRisk_SeasonScores(t *testing.T) {
	tests := []struct {
		season models.Season
		want   float64
	}{
		{models.SeasonSummer, 20},
		{models.SeasonSpring, 50},
		{models.SeasonAutumn, 50},
		{models.SeasonWinter, 75},
	}
	for _, tt := range tests {
		chantier := mormal()
		chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
			env.Season = tt.season
		})
		got, err := ScoreRisk(chantier)
		if err != nil {
			t.Fatalf("ScoreRisk(season=%v) error = %v", tt.season, err)
		}
		if got.ScoreSeason != tt.want {
			t.Errorf("ScoreSeason(%v) = %v, want %v", tt.season, got.ScoreSeason, tt.want)
		}
	}
}

// TestScoreRisk_AccumulationSaturates verifies the 7-day accumulation term
// saturates at 30 mm.
func TestScoreRisk_AccumulationSaturates(t *testing.T) {
	at30 := mormal()
	at30.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
		env.Weather.RainAccumulation7d = 30
	})
	at300 := mormal()
	at300.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
		env.Weather.RainAccumulation7d = 300
	})

	a, err := ScoreRisk(at30)
	if err != nil {
		t.Fatalf("ScoreRisk() error = %v", err)
	}
	b, err := ScoreRisk(at300)
	if err != nil {
		t.Fatalf("ScoreRisk() error = %v", err)
	}
	if a.ScoreWeather != b.ScoreWeather {
		t.Errorf("ScoreWeather = %v vs %v, accumulation should saturate at 30 mm", a.ScoreWeather, b.ScoreWeather)
	}
}

// TestCalculateResult_HighRiskRefused verifies the end-to-end decision for
// the worst-case scenario.
func TestCalculateResult_HighRiskRefused(t *testing.T) {
	got, err := CalculateResult(highRiskChantier(), coeff.DefaultRates())
	if err != nil {
		t.Fatalf("CalculateResult() error = %v", err)
	}
	if got.Risk.ScoreTotal != 100 {
		t.Errorf("Risk.ScoreTotal = %v, want 100", got.Risk.ScoreTotal)
	}
	if got.Recommendation.Decision != models.DecisionRefuse {
		t.Errorf("Decision = %q, want %q", got.Recommendation.Decision, models.DecisionRefuse)
	}
	if got.OptimalPeriod != "June - September (dry soil)" {
		t.Errorf("OptimalPeriod = %q, want the dry-soil window for poor drainage", got.OptimalPeriod)
	}
}
