package models

import "time"

// Coordinate is a WGS84 point in floating-point degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ForecastDay is one day of the upstream weather forecast.
type ForecastDay struct {
	Date                     string  `json:"date"`
	PrecipitationProbability float64 `json:"precipitationProbability"`
	Precipitation            float64 `json:"precipitation"`
	Temp                     float64 `json:"temp"`
	WeatherCode              int     `json:"weatherCode"`
}

// WeatherData summarizes the 7-day forecast for a coordinate.
type WeatherData struct {
	PrecipitationProbability float64       `json:"precipitationProbability"` // max over 7 days, 0-100
	RainAccumulation7d       float64       `json:"rainAccumulation7d"`       // mm
	CurrentTemp              float64       `json:"currentTemp"`              // °C
	Forecast                 []ForecastDay `json:"forecast"`
}

// SoilData holds surface-layer texture and the classes derived from it.
type SoilData struct {
	ClayContent    float64     `json:"clayContent"` // percent
	SandContent    float64     `json:"sandContent"` // percent
	SiltContent    float64     `json:"siltContent"` // percent
	Drainage       Drainage    `json:"drainage"`
	Sensitivity    Sensitivity `json:"sensitivity"`
	Interpretation string      `json:"interpretation,omitempty"` // opaque annotation, may be empty
}

// TerrainData holds the single-point altitude heuristic outputs.
type TerrainData struct {
	Altitude   float64    `json:"altitude"` // meters
	Slope      float64    `json:"slope"`    // percent
	Difficulty Difficulty `json:"difficulty"`
}

// EnvironmentalSnapshot bundles everything the calculators read about the
// chantier's location. Built once by the aggregator, never mutated after.
type EnvironmentalSnapshot struct {
	Weather     WeatherData `json:"weather"`
	Soil        SoilData    `json:"soil"`
	Terrain     TerrainData `json:"terrain"`
	Season      Season      `json:"season"`
	PlaceName   string      `json:"placeName,omitempty"`
	RetrievedAt time.Time   `json:"retrievedAt"`
}
