package estimate

import (
	"fmt"
	"math"

	"github.com/aristee/chantier-service/internal/models"
)

// Risk weights for the four sub-scores.
const (
	weightWeather = 0.35
	weightSoil    = 0.25
	weightSlope   = 0.20
	weightSeason  = 0.20
)

// ScoreRisk produces a weighted 0-100 risk score with the list of triggered
// risk factors. Factors are appended in a fixed order: dangerous
// combinations first, then individual threshold crossings, then
// job-category factors.
func ScoreRisk(chantier models.ChantierInput) (models.RiskAssessment, error) {
	env := chantier.Environment
	if env == nil {
		return models.RiskAssessment{}, ErrMissingEnvironment
	}

	weather := weatherRisk(env.Weather.PrecipitationProbability, env.Weather.RainAccumulation7d)
	soil := soilRisk(env.Soil.Drainage, env.Soil.ClayContent)
	slope := slopeRisk(env.Terrain.Slope)
	season := seasonRisk(env.Season)

	total := weather*weightWeather + soil*weightSoil + slope*weightSlope + season*weightSeason

	var factors []string

	// Combination bonuses.
	if env.Season == models.SeasonWinter && env.Weather.PrecipitationProbability > 50 && env.Soil.ClayContent > 30 {
		total += 25
		factors = append(factors, "critical combination: winter, forecast rain and clay soil")
	}
	if env.Terrain.Slope > 12 && (env.Soil.Drainage == models.DrainagePoor || env.Soil.Drainage == models.DrainageMedium) {
		total += 15
		factors = append(factors, "steep slope over poorly draining soil")
	}
	if env.Weather.PrecipitationProbability > 60 && env.Soil.Sensitivity == models.SensitivityHigh {
		total += 15
		factors = append(factors, "high rain probability over highly sensitive soil")
	}

	total = math.Min(100, total)

	// Individual factors.
	if env.Weather.PrecipitationProbability > 60 {
		factors = append(factors, fmt.Sprintf("rain forecast at %.0f%% probability", env.Weather.PrecipitationProbability))
	}
	if env.Soil.Drainage == models.DrainagePoor {
		factors = append(factors, "poorly draining soil, rutting likely")
	}
	if env.Terrain.Slope > 15 {
		factors = append(factors, fmt.Sprintf("steep slope (%.0f%%)", env.Terrain.Slope))
	}
	if env.Season == models.SeasonWinter {
		factors = append(factors, "winter period, harder working conditions")
	}

	// Job-category factors.
	if chantier.Regrowth == models.RegrowthOld {
		factors = append(factors, "advanced regrowth hiding logs, working time +35%")
	}
	if chantier.Density == models.DensityHigh {
		factors = append(factors, "high tree density, many round trips, time +25%")
	}

	scoreTotal := math.Round(total)
	return models.RiskAssessment{
		ScoreTotal:   scoreTotal,
		ScoreWeather: math.Round(weather),
		ScoreSoil:    math.Round(soil),
		ScoreSlope:   math.Round(slope),
		ScoreSeason:  math.Round(season),
		Factors:      factors,
		Level:        riskLevel(scoreTotal),
	}, nil
}

// weatherRisk weighs the rain probability against the 7-day accumulation.
// Accumulation saturates at 30 mm.
func weatherRisk(precipProbability, rainAccumulation7d float64) float64 {
	accum := math.Min(100, rainAccumulation7d/30*100)
	return precipProbability*0.7 + accum*0.3
}

// soilRisk starts from the drainage class and stacks clay penalties on top,
// capped at 100.
func soilRisk(drainage models.Drainage, clayContent float64) float64 {
	var base float64
	switch drainage {
	case models.DrainageExcellent:
		base = 10
	case models.DrainageGood:
		base = 30
	case models.DrainageMedium:
		base = 60
	case models.DrainagePoor:
		base = 85
	}
	if clayContent > 35 {
		base = math.Min(100, base+15)
	}
	if clayContent > 40 {
		base = math.Min(100, base+10)
	}
	return base
}

// slopeRisk is a step function over the slope percent.
func slopeRisk(slope float64) float64 {
	switch {
	case slope < 5:
		return 10
	case slope < 10:
		return 30
	case slope < 15:
		return 60
	case slope < 20:
		return 80
	default:
		return 100
	}
}

func seasonRisk(season models.Season) float64 {
	switch season {
	case models.SeasonSummer:
		return 20
	case models.SeasonSpring, models.SeasonAutumn:
		return 50
	case models.SeasonWinter:
		return 75
	}
	return 50
}

func riskLevel(score float64) models.RiskLevel {
	switch {
	case score < 30:
		return models.RiskLow
	case score < 60:
		return models.RiskMedium
	case score < 80:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
