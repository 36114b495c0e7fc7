package estimate

import (
	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/models"
)

// CalculateCosts converts the time estimate and environmental coefficients
// into a cost breakdown. Each component is rounded to the euro on its own
// and the total is the sum of the rounded components, so the breakdown
// always adds up for the reader.
func CalculateCosts(chantier models.ChantierInput, rates coeff.Rates) (models.CostBreakdown, error) {
	env := chantier.Environment
	if env == nil {
		return models.CostBreakdown{}, ErrMissingEnvironment
	}

	timeEst, err := EstimateTime(chantier, rates)
	if err != nil {
		return models.CostBreakdown{}, err
	}

	transport := chantier.TransportDistance * rates.TransportCostPerKm * 2

	soil := coeff.ForDrainage(env.Soil.Drainage)
	slope := coeff.ForSlope(env.Terrain.Slope)
	weather := coeff.ForWeather(env.Weather.PrecipitationProbability, env.Soil.ClayContent)
	consumption := rates.BaseConsumption * soil.Consumption * slope.Consumption * weather.Consumption
	fuel := timeEst.TotalHours * consumption * rates.FuelPrice

	machine := timeEst.TotalHours * rates.MachineHourlyCost

	loadedWage := rates.OperatorWage * (1 + rates.SocialChargeRate)
	labor := timeEst.TotalHours*loadedWage + rates.TravelAllowance

	breakdown := models.CostBreakdown{
		Transport: roundEuro(transport),
		Fuel:      roundEuro(fuel),
		Machine:   roundEuro(machine),
		Labor:     roundEuro(labor),
	}
	breakdown.Total = breakdown.Transport + breakdown.Fuel + breakdown.Machine + breakdown.Labor
	return breakdown, nil
}
