package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristee/chantier-service/internal/models"
)

// OpenElevationClient fetches point altitude from the Open-Elevation API
// and estimates slope from it. The slope heuristic is a single-point
// approximation; real geodesic slope would need a profile of samples along
// the hauling line.
type OpenElevationClient struct {
	apiClient
	baseURL string
}

// NewOpenElevationClient creates an Open-Elevation terrain client.
func NewOpenElevationClient(baseURL string, timeout time.Duration, retry RetryConfig) *OpenElevationClient {
	if baseURL == "" {
		baseURL = "https://api.open-elevation.com"
	}
	return &OpenElevationClient{
		apiClient: newAPIClient("open_elevation", timeout, retry),
		baseURL:   baseURL,
	}
}

type elevationRequest struct {
	Locations []elevationLocation `json:"locations"`
}

type elevationLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type elevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// FetchTerrain implements TerrainProvider.
func (c *OpenElevationClient) FetchTerrain(ctx context.Context, coord models.Coordinate) (models.TerrainData, error) {
	payload, err := json.Marshal(elevationRequest{
		Locations: []elevationLocation{{Latitude: coord.Latitude, Longitude: coord.Longitude}},
	})
	if err != nil {
		return models.TerrainData{}, fmt.Errorf("open-elevation: encode request: %w", err)
	}

	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/lookup", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return models.TerrainData{}, fmt.Errorf("open-elevation: %w", err)
	}

	var resp elevationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.TerrainData{}, fmt.Errorf("open-elevation: parse response: %w", err)
	}

	var altitude float64
	if len(resp.Results) > 0 {
		altitude = resp.Results[0].Elevation
	}

	slope := EstimateSlope(altitude)
	return models.TerrainData{
		Altitude:   altitude,
		Slope:      slope,
		Difficulty: DeriveDifficulty(slope),
	}, nil
}

// EstimateSlope maps altitude to the midpoint of its expected slope band:
// lowland forests are flat, mountains are steep. Deterministic: the same
// altitude always yields the same slope, so repeated estimations agree.
func EstimateSlope(altitude float64) float64 {
	switch {
	case altitude < 100:
		return 3.5 // 2-5% band
	case altitude < 300:
		return 7.5 // 5-10% band
	case altitude < 600:
		return 12.5 // 10-15% band
	default:
		return 20 // 15-25% band
	}
}

// DeriveDifficulty classifies terrain for the operator from the slope.
func DeriveDifficulty(slope float64) models.Difficulty {
	switch {
	case slope < 8:
		return models.DifficultyEasy
	case slope < 15:
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}
