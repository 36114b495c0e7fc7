package coeff

// Rates holds the commercial and machine performance parameters the cost and
// time calculators run on. Loaded from config with DefaultRates as fallback.
type Rates struct {
	MachineHourlyCost float64 `yaml:"machine_hourly_cost"` // €/h, amortization + maintenance
	BaseConsumption   float64 `yaml:"base_consumption"`    // L/h
	FuelPrice         float64 `yaml:"fuel_price"`          // €/L

	TransportCostPerKm float64 `yaml:"transport_cost_per_km"` // €/km

	OperatorWage     float64 `yaml:"operator_wage"`      // €/h gross
	SocialChargeRate float64 `yaml:"social_charge_rate"` // decimal, 0.50 = 50%
	TravelAllowance  float64 `yaml:"travel_allowance"`   // €/day

	BaseSpeed     float64 `yaml:"base_speed"`      // km/h in the stand
	BasePayload   float64 `yaml:"base_payload"`    // m³ per trip
	LoadUnloadMin float64 `yaml:"load_unload_min"` // minutes per cycle
	SetupHours    float64 `yaml:"setup_hours"`     // fixed installation time
}

// DefaultRates are realistic figures for a forestry forwarder.
func DefaultRates() Rates {
	return Rates{
		MachineHourlyCost:  40,   // 320 €/day over 8 h
		BaseConsumption:    12,
		FuelPrice:          1.65,
		TransportCostPerKm: 15,
		OperatorWage:       25,
		SocialChargeRate:   0.50,
		TravelAllowance:    50,
		BaseSpeed:          3.5,
		BasePayload:        12,
		LoadUnloadMin:      10,
		SetupHours:         2,
	}
}
