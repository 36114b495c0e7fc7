package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aristee/chantier-service/internal/models"
)

// SoilGridsClient fetches surface soil texture from the ISRIC SoilGrids
// API. The public endpoint is limited to 5 req/min, which is why soil
// lookups always run through the geocache.
type SoilGridsClient struct {
	apiClient
	baseURL string
}

// NewSoilGridsClient creates a SoilGrids soil client.
func NewSoilGridsClient(baseURL string, timeout time.Duration, retry RetryConfig) *SoilGridsClient {
	if baseURL == "" {
		baseURL = "https://rest.isric.org"
	}
	return &SoilGridsClient{
		apiClient: newAPIClient("soilgrids", timeout, retry),
		baseURL:   baseURL,
	}
}

type soilGridsResponse struct {
	Properties struct {
		Layers []struct {
			Name   string `json:"name"`
			Depths []struct {
				Values struct {
					Mean *float64 `json:"mean"`
				} `json:"values"`
			} `json:"depths"`
		} `json:"layers"`
	} `json:"properties"`
}

// FetchSoil implements SoilProvider. Texture comes back in g/kg for the
// 0-5 cm surface layer; drainage and rut sensitivity are derived from it.
func (c *SoilGridsClient) FetchSoil(ctx context.Context, coord models.Coordinate) (models.SoilData, error) {
	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.baseURL + "/soilgrids/v2.0/properties/query")
		if err != nil {
			return nil, err
		}
		params := url.Values{}
		params.Set("lat", formatFloat(coord.Latitude))
		params.Set("lon", formatFloat(coord.Longitude))
		params["property"] = []string{"clay", "sand", "silt"}
		params.Set("depth", "0-5cm")
		u.RawQuery = params.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return models.SoilData{}, fmt.Errorf("soilgrids: %w", err)
	}

	var resp soilGridsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.SoilData{}, fmt.Errorf("soilgrids: parse response: %w", err)
	}
	return mapSoil(resp), nil
}

// mapSoil converts g/kg means to percentages, substituting a plausible
// texture for properties the grid has no data for.
func mapSoil(resp soilGridsResponse) models.SoilData {
	clay := texturePercent(resp, "clay", 20)
	sand := texturePercent(resp, "sand", 40)
	silt := texturePercent(resp, "silt", 40)

	drainage := DeriveDrainage(clay, sand)
	return models.SoilData{
		ClayContent: clay,
		SandContent: sand,
		SiltContent: silt,
		Drainage:    drainage,
		Sensitivity: DeriveSensitivity(clay, drainage),
	}
}

func texturePercent(resp soilGridsResponse, name string, fallback float64) float64 {
	for _, layer := range resp.Properties.Layers {
		if layer.Name != name {
			continue
		}
		if len(layer.Depths) > 0 && layer.Depths[0].Values.Mean != nil {
			return *layer.Depths[0].Values.Mean / 10
		}
	}
	return fallback
}

// DeriveDrainage classifies drainage from surface texture. Sandy soils shed
// water, clayey soils hold it.
func DeriveDrainage(clayContent, sandContent float64) models.Drainage {
	switch {
	case sandContent > 60:
		return models.DrainageExcellent
	case sandContent > 50 && clayContent < 20:
		return models.DrainageGood
	case clayContent > 35:
		return models.DrainagePoor
	case clayContent > 25:
		return models.DrainageMedium
	default:
		return models.DrainageGood
	}
}

// DeriveSensitivity classifies rut sensitivity from clay content and the
// drainage class already derived from it.
func DeriveSensitivity(clayContent float64, drainage models.Drainage) models.Sensitivity {
	if clayContent > 35 && (drainage == models.DrainagePoor || drainage == models.DrainageMedium) {
		return models.SensitivityHigh
	}
	if clayContent > 25 {
		return models.SensitivityMedium
	}
	return models.SensitivityLow
}
