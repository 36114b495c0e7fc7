package estimate

import (
	"strings"
	"testing"

	"github.com/aristee/chantier-service/internal/models"
)

func TestMarginBand(t *testing.T) {
	tests := []struct {
		percent float64
		want    models.MarginBand
	}{
		{-5, models.MarginNonProfitable},
		{9.9, models.MarginNonProfitable},
		{10, models.MarginLow},
		{19.9, models.MarginLow},
		{20, models.MarginProfitable},
		{29.9, models.MarginProfitable},
		{30, models.MarginHighlyProfitable},
		{55, models.MarginHighlyProfitable},
	}
	for _, tt := range tests {
		if got := marginBand(tt.percent); got != tt.want {
			t.Errorf("marginBand(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		marginPercent float64
		riskScore     float64
		want          models.Decision
	}{
		{"comfortable", 25, 30, models.DecisionAccept},
		{"margin just below refuse line", 9.9, 20, models.DecisionRefuse},
		{"risk at refuse threshold", 25, 75, models.DecisionRefuse},
		{"margin in conditions band", 12, 20, models.DecisionAcceptConditions},
		{"risk at conditions threshold", 25, 60, models.DecisionAcceptConditions},
		{"both thresholds clear", 15, 59.9, models.DecisionAccept},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decide(tt.marginPercent, tt.riskScore); got != tt.want {
				t.Errorf("decide(%v, %v) = %q, want %q", tt.marginPercent, tt.riskScore, got, tt.want)
			}
		})
	}
}

// TestBuildRecommendation_Suggestions covers the conditional remediation
// suggestions.
func TestBuildRecommendation_Suggestions(t *testing.T) {
	chantier := mormal()
	chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
		env.Weather.PrecipitationProbability = 70
		env.Soil.Drainage = models.DrainagePoor
		env.Terrain.Slope = 18
	})

	rec := buildRecommendation(chantier, 12, models.RiskAssessment{ScoreTotal: 50})

	var all string
	for _, s := range rec.Suggestions {
		all += s + "\n"
	}
	for _, want := range []string{"increase the price", "defer the intervention", "anti-rut", "winch"} {
		if !strings.Contains(all, want) {
			t.Errorf("Suggestions missing %q:\n%s", want, all)
		}
	}
}

// TestBuildRecommendation_PriceIncreaseFigure checks the increase needed to
// reach a 15% margin: ceil((15-m)/m*100).
func TestBuildRecommendation_PriceIncreaseFigure(t *testing.T) {
	rec := buildRecommendation(mormal(), 10, models.RiskAssessment{})
	found := false
	for _, s := range rec.Suggestions {
		if strings.Contains(s, "increase the price by 50%") {
			found = true
		}
	}
	if !found {
		t.Errorf("Suggestions = %v, want a 50%% price increase for a 10%% margin", rec.Suggestions)
	}
}

// TestBuildRecommendation_NegativeMargin verifies the increase formula is
// not applied to non-positive margins.
func TestBuildRecommendation_NegativeMargin(t *testing.T) {
	rec := buildRecommendation(mormal(), -11.7, models.RiskAssessment{})
	for _, s := range rec.Suggestions {
		if strings.Contains(s, "increase the price by") {
			t.Errorf("Suggestions = %v, want no percentage figure for a negative margin", rec.Suggestions)
		}
	}
	if rec.Decision != models.DecisionRefuse {
		t.Errorf("Decision = %q, want %q", rec.Decision, models.DecisionRefuse)
	}
}

// TestBuildRecommendation_ModerateRainHint verifies the softer hint in the
// 40-60% rain band.
func TestBuildRecommendation_ModerateRainHint(t *testing.T) {
	chantier := mormal()
	chantier.Environment = snapshot(func(env *models.EnvironmentalSnapshot) {
		env.Weather.PrecipitationProbability = 45
	})
	rec := buildRecommendation(chantier, 25, models.RiskAssessment{ScoreTotal: 30})

	found := false
	for _, s := range rec.Suggestions {
		if strings.Contains(s, "before the forecast rain") {
			found = true
		}
		if strings.Contains(s, "defer") {
			t.Errorf("Suggestions = %v, deferral should need >60%% probability", rec.Suggestions)
		}
	}
	if !found {
		t.Errorf("Suggestions = %v, want the intervene-before-rain hint", rec.Suggestions)
	}
}

func TestOptimalPeriod(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.EnvironmentalSnapshot)
		want   string
	}{
		{"default window", nil, "May - September"},
		{
			"sensitive soil",
			func(env *models.EnvironmentalSnapshot) { env.Soil.Sensitivity = models.SensitivityHigh },
			"June - September (dry soil)",
		},
		{
			"poor drainage",
			func(env *models.EnvironmentalSnapshot) { env.Soil.Drainage = models.DrainagePoor },
			"June - September (dry soil)",
		},
		{
			"steep slope avoids winter",
			func(env *models.EnvironmentalSnapshot) { env.Terrain.Slope = 13 },
			"April - October (outside winter)",
		},
		{
			"sensitivity wins over slope",
			func(env *models.EnvironmentalSnapshot) {
				env.Soil.Sensitivity = models.SensitivityHigh
				env.Terrain.Slope = 13
			},
			"June - September (dry soil)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := optimalPeriod(*snapshot(tt.mutate)); got != tt.want {
				t.Errorf("optimalPeriod() = %q, want %q", got, tt.want)
			}
		})
	}
}
