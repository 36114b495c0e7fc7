// Package coeff holds the static coefficient tables that translate terrain,
// soil, weather and vegetation conditions into multiplicative factors on
// speed, fuel consumption, payload and cycle time. Values are calibrated for
// a forestry forwarder and must not be tuned per request.
package coeff

import "github.com/aristee/chantier-service/internal/models"

// SoilFactors scales speed, fuel consumption and payload by drainage class.
type SoilFactors struct {
	Speed       float64
	Consumption float64
	Payload     float64
}

// ForDrainage returns the soil factors for a drainage class.
func ForDrainage(d models.Drainage) SoilFactors {
	switch d {
	case models.DrainageExcellent:
		return SoilFactors{Speed: 1.0, Consumption: 1.0, Payload: 1.0}
	case models.DrainageGood:
		return SoilFactors{Speed: 0.9, Consumption: 1.1, Payload: 0.95}
	case models.DrainageMedium:
		return SoilFactors{Speed: 0.75, Consumption: 1.25, Payload: 0.85}
	case models.DrainagePoor:
		return SoilFactors{Speed: 0.6, Consumption: 1.5, Payload: 0.7}
	}
	// Unknown classes are rejected at validation; this is unreachable for
	// inputs that passed it.
	return SoilFactors{Speed: 1.0, Consumption: 1.0, Payload: 1.0}
}

// SlopeFactors scales speed and fuel consumption by slope band.
type SlopeFactors struct {
	Speed       float64
	Consumption float64
}

// ForSlope returns the slope factors for a slope in percent. Four bands:
// <5, 5-10, 10-15, >=15.
func ForSlope(slopePercent float64) SlopeFactors {
	switch {
	case slopePercent < 5:
		return SlopeFactors{Speed: 1.0, Consumption: 1.0}
	case slopePercent < 10:
		return SlopeFactors{Speed: 0.85, Consumption: 1.15}
	case slopePercent < 15:
		return SlopeFactors{Speed: 0.7, Consumption: 1.3}
	default:
		return SlopeFactors{Speed: 0.6, Consumption: 1.5}
	}
}

// WeatherFactors scales speed and fuel consumption by rain probability.
type WeatherFactors struct {
	Speed       float64
	Consumption float64
}

// clayThreshold is the clay content (percent) above which wet soil degrades
// into mud and the rain penalty is stepped up.
const clayThreshold = 30

// ForWeather returns the weather factors for a precipitation probability
// (0-100) and the soil clay content. Wet forecasts over clay soils are
// penalized harder than over free-draining ones.
func ForWeather(precipProbability, clayContent float64) WeatherFactors {
	switch {
	case precipProbability < 30:
		return WeatherFactors{Speed: 1.0, Consumption: 1.0}
	case precipProbability < 50:
		return WeatherFactors{Speed: 0.95, Consumption: 1.05}
	case precipProbability < 70:
		if clayContent > clayThreshold {
			return WeatherFactors{Speed: 0.7, Consumption: 1.3}
		}
		return WeatherFactors{Speed: 0.85, Consumption: 1.15}
	default:
		if clayContent > clayThreshold {
			return WeatherFactors{Speed: 0.6, Consumption: 1.4}
		}
		return WeatherFactors{Speed: 0.75, Consumption: 1.25}
	}
}

// ForDispersion returns the cycle-time multiplier for tree dispersion.
// Scattered logs mean longer approaches on every cycle.
func ForDispersion(d models.Dispersion) float64 {
	switch d {
	case models.DispersionGrouped:
		return 1.0
	case models.DispersionMedium:
		return 1.2
	case models.DispersionScattered:
		return 1.5
	}
	return 1.0
}

// ForDensity returns the hauling-time multiplier for tree density. Dense
// parcels carry many small stems, so loads assemble slower.
func ForDensity(d models.Density) float64 {
	switch d {
	case models.DensityLow:
		return 0.9
	case models.DensityMedium:
		return 1.0
	case models.DensityHigh:
		return 1.25
	}
	return 1.0
}

// ForRegrowth returns the cycle-time multiplier for regrowth age. Old cuts
// hide logs under vegetation and every pickup takes longer.
func ForRegrowth(r models.RegrowthAge) float64 {
	switch r {
	case models.RegrowthRecent:
		return 1.0
	case models.RegrowthMedium:
		return 1.15
	case models.RegrowthOld:
		return 1.35
	}
	return 1.0
}
