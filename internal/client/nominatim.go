package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristee/chantier-service/internal/models"
)

// Nominatim usage policy requires an identifying User-Agent.
const nominatimUserAgent = "chantier-service/1.0"

// NominatimClient resolves coordinates to place names through the OSM
// Nominatim API.
type NominatimClient struct {
	apiClient
	baseURL string
}

// NewNominatimClient creates a Nominatim geocoding client.
func NewNominatimClient(baseURL string, timeout time.Duration, retry RetryConfig) *NominatimClient {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimClient{
		apiClient: newAPIClient("nominatim", timeout, retry),
		baseURL:   baseURL,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

// ReverseGeocode implements GeocodingProvider. Returns a compact
// "locality, county, state" label, falling back to the full display name.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, coord models.Coordinate) (string, error) {
	body, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.baseURL + "/reverse")
		if err != nil {
			return nil, err
		}
		params := url.Values{}
		params.Set("format", "json")
		params.Set("lat", formatFloat(coord.Latitude))
		params.Set("lon", formatFloat(coord.Longitude))
		params.Set("zoom", "18")
		params.Set("addressdetails", "1")
		u.RawQuery = params.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", nominatimUserAgent)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("nominatim: %w", err)
	}

	var resp nominatimResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("nominatim: parse response: %w", err)
	}

	locality := resp.Address.City
	if locality == "" {
		locality = resp.Address.Town
	}
	if locality == "" {
		locality = resp.Address.Village
	}

	var parts []string
	for _, p := range []string{locality, resp.Address.County, resp.Address.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return resp.DisplayName, nil
	}
	return strings.Join(parts, ", "), nil
}
