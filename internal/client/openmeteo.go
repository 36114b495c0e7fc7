package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristee/chantier-service/internal/models"
)

const forecastDays = 7

// OpenMeteoClient fetches daily forecasts from the Open-Meteo API. No API
// key required.
type OpenMeteoClient struct {
	apiClient
	baseURL  string
	timezone string
}

// NewOpenMeteoClient creates an Open-Meteo weather client.
func NewOpenMeteoClient(baseURL string, timeout time.Duration, retry RetryConfig) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	return &OpenMeteoClient{
		apiClient: newAPIClient("open_meteo", timeout, retry),
		baseURL:   baseURL,
		timezone:  "Europe/Paris",
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time                        []string  `json:"time"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		WeatherCode                 []int     `json:"weathercode"`
	} `json:"daily"`
}

// FetchWeather implements WeatherProvider. It summarizes the daily forecast
// over the next 7 days: worst rain probability, accumulated precipitation
// and the first day's max temperature.
func (c *OpenMeteoClient) FetchWeather(ctx context.Context, coord models.Coordinate) (models.WeatherData, error) {
	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.baseURL + "/v1/forecast")
		if err != nil {
			return nil, err
		}
		params := url.Values{}
		params.Set("latitude", formatFloat(coord.Latitude))
		params.Set("longitude", formatFloat(coord.Longitude))
		params.Set("daily", "precipitation_sum,precipitation_probability_max,temperature_2m_max,weathercode")
		params.Set("timezone", c.timezone)
		u.RawQuery = params.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("open-meteo: %w", err)
	}

	var resp openMeteoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.WeatherData{}, fmt.Errorf("open-meteo: parse response: %w", err)
	}
	return mapForecast(resp), nil
}

func mapForecast(resp openMeteoResponse) models.WeatherData {
	daily := resp.Daily
	days := len(daily.Time)
	if days > forecastDays {
		days = forecastDays
	}

	data := models.WeatherData{CurrentTemp: 15}
	for i := 0; i < days; i++ {
		day := models.ForecastDay{Date: daily.Time[i]}
		if i < len(daily.PrecipitationProbabilityMax) {
			day.PrecipitationProbability = daily.PrecipitationProbabilityMax[i]
		}
		if i < len(daily.PrecipitationSum) {
			day.Precipitation = daily.PrecipitationSum[i]
		}
		if i < len(daily.Temperature2mMax) {
			day.Temp = daily.Temperature2mMax[i]
		}
		if i < len(daily.WeatherCode) {
			day.WeatherCode = daily.WeatherCode[i]
		}
		data.Forecast = append(data.Forecast, day)

		if day.PrecipitationProbability > data.PrecipitationProbability {
			data.PrecipitationProbability = day.PrecipitationProbability
		}
		data.RainAccumulation7d += day.Precipitation
	}
	if days > 0 && len(daily.Temperature2mMax) > 0 {
		data.CurrentTemp = daily.Temperature2mMax[0]
	}
	return data
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
