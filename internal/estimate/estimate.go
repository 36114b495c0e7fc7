// Package estimate implements the chantier estimation pipeline: working
// time, cost breakdown, risk score and margin. All calculators are pure
// functions of the chantier input and the rate configuration; for a fixed
// input they return identical output on every invocation.
package estimate

import (
	"errors"
	"math"
)

// ErrMissingEnvironment is returned when a calculator is invoked without the
// environmental snapshot it requires. The caller must run the aggregator
// first; there is no silent default.
var ErrMissingEnvironment = errors.New("environmental snapshot required")

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundEuro(v float64) float64 {
	return math.Round(v)
}
