// Package service orchestrates a chantier estimation end to end: collect
// the environmental snapshot, run the calculators, attach annotations.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aristee/chantier-service/internal/aggregator"
	"github.com/aristee/chantier-service/internal/annotate"
	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/estimate"
	"github.com/aristee/chantier-service/internal/models"
	"github.com/aristee/chantier-service/internal/observability"
)

// Estimator runs the full estimation pipeline for one chantier request.
type Estimator struct {
	aggregator *aggregator.Aggregator
	annotator  *annotate.Annotator
	rates      coeff.Rates
	logger     *zap.Logger
}

// New wires an estimator. annotator may be nil to skip AI annotations.
func New(agg *aggregator.Aggregator, annotator *annotate.Annotator, rates coeff.Rates, logger *zap.Logger) *Estimator {
	return &Estimator{
		aggregator: agg,
		annotator:  annotator,
		rates:      rates,
		logger:     logger,
	}
}

// Estimation is the full response for one estimated chantier: the snapshot
// the calculators ran on and the result they produced.
type Estimation struct {
	Environment *models.EnvironmentalSnapshot `json:"environment"`
	Result      models.ChantierResult         `json:"result"`
}

// Estimate collects the environment for the chantier's location and runs
// the time, cost, risk and margin calculators over it. The input is assumed
// validated; the caller owns the HTTP-level checks.
func (e *Estimator) Estimate(ctx context.Context, input models.ChantierInput) (Estimation, error) {
	start := time.Now()

	env := e.aggregator.Collect(ctx, input.Location)
	if e.annotator != nil {
		env.Soil.Interpretation = e.annotator.InterpretSoil(ctx, env.Soil)
	}
	input.Environment = env

	result, err := estimate.CalculateResult(input, e.rates)
	if err != nil {
		return Estimation{}, fmt.Errorf("estimate chantier %q: %w", input.Name, err)
	}

	if e.annotator != nil {
		result.AIAnalysis = e.annotator.AnalyzeChantier(ctx, input, result)
	}

	duration := time.Since(start)
	observability.EstimationsTotal.WithLabelValues(string(result.Recommendation.Decision)).Inc()
	observability.EstimationDuration.Observe(duration.Seconds())

	e.logger.Info("chantier estimated",
		zap.String("name", input.Name),
		zap.String("client", input.Client),
		zap.Float64("volume", input.Volume),
		zap.Float64("marginPercent", result.MarginPercent),
		zap.Float64("riskScore", result.Risk.ScoreTotal),
		zap.String("decision", string(result.Recommendation.Decision)),
		zap.Duration("duration", duration))

	return Estimation{Environment: env, Result: result}, nil
}
