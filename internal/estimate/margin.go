package estimate

import (
	"fmt"
	"math"

	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/models"
)

// CalculateResult is the single entry point of the estimation pipeline. It
// runs the time, cost and risk calculators in sequence and derives margin,
// recommendation and optimal period from their output.
func CalculateResult(chantier models.ChantierInput, rates coeff.Rates) (models.ChantierResult, error) {
	timeEst, err := EstimateTime(chantier, rates)
	if err != nil {
		return models.ChantierResult{}, err
	}
	costs, err := CalculateCosts(chantier, rates)
	if err != nil {
		return models.ChantierResult{}, err
	}
	risk, err := ScoreRisk(chantier)
	if err != nil {
		return models.ChantierResult{}, err
	}

	margin := chantier.InvoicedPrice - costs.Total
	marginPercent := round1(margin / chantier.InvoicedPrice * 100)

	return models.ChantierResult{
		Time:           timeEst,
		Costs:          costs,
		Margin:         margin,
		MarginPercent:  marginPercent,
		Risk:           risk,
		Recommendation: buildRecommendation(chantier, marginPercent, risk),
		OptimalPeriod:  optimalPeriod(*chantier.Environment),
	}, nil
}

// buildRecommendation assembles the structured advice: profitability band,
// the risk factors already collected by the scorer, conditional remediation
// suggestions and the final decision. Rendering is the presentation layer's
// problem.
func buildRecommendation(chantier models.ChantierInput, marginPercent float64, risk models.RiskAssessment) models.Recommendation {
	env := chantier.Environment
	rec := models.Recommendation{
		Band:        marginBand(marginPercent),
		RiskFactors: risk.Factors,
	}

	if marginPercent < 15 {
		if marginPercent > 0 {
			increase := math.Ceil((15 - marginPercent) / marginPercent * 100)
			rec.Suggestions = append(rec.Suggestions,
				fmt.Sprintf("increase the price by %.0f%% to reach a 15%% margin", increase))
		} else {
			rec.Suggestions = append(rec.Suggestions, "renegotiate the price, the chantier does not cover its costs")
		}
	}

	switch {
	case env.Weather.PrecipitationProbability > 60:
		rec.Suggestions = append(rec.Suggestions,
			"defer the intervention, high rain probability",
			"wait for a weather window with precipitation below 30%")
	case env.Weather.PrecipitationProbability > 40:
		rec.Suggestions = append(rec.Suggestions, "intervene before the forecast rain period")
	}

	if env.Soil.Drainage == models.DrainagePoor {
		rec.Suggestions = append(rec.Suggestions,
			"plan anti-rut protection (mats, brush)",
			"avoid working after rain, wait at least 48h")
	}

	if env.Terrain.Slope > 15 {
		rec.Suggestions = append(rec.Suggestions,
			"plan a winch or cable for the steepest zones",
			"adjust the fuel budget, +30% over estimate")
	}

	rec.Decision = decide(marginPercent, risk.ScoreTotal)
	return rec
}

func marginBand(marginPercent float64) models.MarginBand {
	switch {
	case marginPercent < 10:
		return models.MarginNonProfitable
	case marginPercent < 20:
		return models.MarginLow
	case marginPercent < 30:
		return models.MarginProfitable
	default:
		return models.MarginHighlyProfitable
	}
}

func decide(marginPercent, riskScore float64) models.Decision {
	switch {
	case marginPercent < 10 || riskScore >= 75:
		return models.DecisionRefuse
	case marginPercent < 15 || riskScore >= 60:
		return models.DecisionAcceptConditions
	default:
		return models.DecisionAccept
	}
}

// optimalPeriod picks a coarse calendar window from soil sensitivity,
// drainage and slope, independent of the risk score.
func optimalPeriod(env models.EnvironmentalSnapshot) string {
	if env.Soil.Sensitivity == models.SensitivityHigh || env.Soil.Drainage == models.DrainagePoor {
		return "June - September (dry soil)"
	}
	if env.Terrain.Slope > 12 {
		return "April - October (outside winter)"
	}
	return "May - September"
}
