package estimate

import (
	"math"

	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/models"
)

// EstimateTime converts the chantier parameters and environmental conditions
// into a working-time estimate.
//
// Soil drainage scales speed, consumption and payload; slope and weather
// scale speed and consumption; dispersion and regrowth stretch each cycle;
// density stretches the whole hauling phase. A fixed setup time is added on
// top.
func EstimateTime(chantier models.ChantierInput, rates coeff.Rates) (models.TimeEstimate, error) {
	env := chantier.Environment
	if env == nil {
		return models.TimeEstimate{}, ErrMissingEnvironment
	}

	soil := coeff.ForDrainage(env.Soil.Drainage)
	slope := coeff.ForSlope(env.Terrain.Slope)
	weather := coeff.ForWeather(env.Weather.PrecipitationProbability, env.Soil.ClayContent)
	dispersion := coeff.ForDispersion(chantier.Dispersion)
	density := coeff.ForDensity(chantier.Density)
	regrowth := coeff.ForRegrowth(chantier.Regrowth)

	speed := rates.BaseSpeed * soil.Speed * slope.Speed * weather.Speed
	payload := rates.BasePayload * soil.Payload

	roundTrips := int(math.Ceil(chantier.Volume / payload))

	distanceKm := chantier.HaulingDistance / 1000
	travelHours := distanceKm * 2 / speed
	loadUnloadHours := rates.LoadUnloadMin / 60
	cycleHours := (travelHours + loadUnloadHours) * dispersion * regrowth

	haulingHours := float64(roundTrips) * cycleHours * density
	totalHours := haulingHours + rates.SetupHours

	return models.TimeEstimate{
		TotalHours:   round1(totalHours),
		RoundTrips:   roundTrips,
		CycleMinutes: math.Round(cycleHours * 60),
		AvgSpeed:     round1(speed),
		HaulingHours: round1(haulingHours),
		SetupHours:   rates.SetupHours,
	}, nil
}
