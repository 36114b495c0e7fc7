package coeff

import (
	"testing"

	"github.com/aristee/chantier-service/internal/models"
)

// TestForSlope_Bands pins the four slope bands and their boundaries.
func TestForSlope_Bands(t *testing.T) {
	tests := []struct {
		slope float64
		want  SlopeFactors
	}{
		{0, SlopeFactors{1.0, 1.0}},
		{4.9, SlopeFactors{1.0, 1.0}},
		{5, SlopeFactors{0.85, 1.15}},
		{9.9, SlopeFactors{0.85, 1.15}},
		{10, SlopeFactors{0.7, 1.3}},
		{14.9, SlopeFactors{0.7, 1.3}},
		{15, SlopeFactors{0.6, 1.5}},
		{40, SlopeFactors{0.6, 1.5}},
	}
	for _, tt := range tests {
		if got := ForSlope(tt.slope); got != tt.want {
			t.Errorf("ForSlope(%v) = %+v, want %+v", tt.slope, got, tt.want)
		}
	}
}

// TestForWeather_ClayPenalty verifies wet forecasts over clay soils are
// penalized harder than over free-draining ones.
func TestForWeather_ClayPenalty(t *testing.T) {
	tests := []struct {
		name   string
		precip float64
		clay   float64
		want   WeatherFactors
	}{
		{"dry", 20, 50, WeatherFactors{1.0, 1.0}},
		{"light", 40, 50, WeatherFactors{0.95, 1.05}},
		{"moderate over sand", 60, 20, WeatherFactors{0.85, 1.15}},
		{"moderate over clay", 60, 35, WeatherFactors{0.7, 1.3}},
		{"heavy over sand", 80, 20, WeatherFactors{0.75, 1.25}},
		{"heavy over clay", 80, 35, WeatherFactors{0.6, 1.4}},
		{"clay threshold is strict", 60, 30, WeatherFactors{0.85, 1.15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForWeather(tt.precip, tt.clay); got != tt.want {
				t.Errorf("ForWeather(%v, %v) = %+v, want %+v", tt.precip, tt.clay, got, tt.want)
			}
		})
	}
}

// TestForDrainage_Table pins the drainage factor table.
func TestForDrainage_Table(t *testing.T) {
	tests := []struct {
		drainage models.Drainage
		want     SoilFactors
	}{
		{models.DrainageExcellent, SoilFactors{1.0, 1.0, 1.0}},
		{models.DrainageGood, SoilFactors{0.9, 1.1, 0.95}},
		{models.DrainageMedium, SoilFactors{0.75, 1.25, 0.85}},
		{models.DrainagePoor, SoilFactors{0.6, 1.5, 0.7}},
	}
	for _, tt := range tests {
		if got := ForDrainage(tt.drainage); got != tt.want {
			t.Errorf("ForDrainage(%q) = %+v, want %+v", tt.drainage, got, tt.want)
		}
	}
}

// TestCategoryMultipliers pins the dispersion, density and regrowth tables.
func TestCategoryMultipliers(t *testing.T) {
	if got := ForDispersion(models.DispersionGrouped); got != 1.0 {
		t.Errorf("ForDispersion(grouped) = %v, want 1.0", got)
	}
	if got := ForDispersion(models.DispersionScattered); got != 1.5 {
		t.Errorf("ForDispersion(scattered) = %v, want 1.5", got)
	}
	if got := ForDensity(models.DensityLow); got != 0.9 {
		t.Errorf("ForDensity(low) = %v, want 0.9", got)
	}
	if got := ForDensity(models.DensityHigh); got != 1.25 {
		t.Errorf("ForDensity(high) = %v, want 1.25", got)
	}
	if got := ForRegrowth(models.RegrowthMedium); got != 1.15 {
		t.Errorf("ForRegrowth(medium) = %v, want 1.15", got)
	}
	if got := ForRegrowth(models.RegrowthOld); got != 1.35 {
		t.Errorf("ForRegrowth(old) = %v, want 1.35", got)
	}
}
