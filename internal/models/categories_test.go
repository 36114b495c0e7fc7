package models

import (
	"testing"
	"time"
)

func TestSeasonOf(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonAutumn},
		{time.November, SeasonAutumn},
		{time.December, SeasonWinter},
	}
	for _, tt := range tests {
		d := time.Date(2025, tt.month, 15, 0, 0, 0, 0, time.UTC)
		if got := SeasonOf(d); got != tt.want {
			t.Errorf("SeasonOf(%v) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestCategories_Valid(t *testing.T) {
	if !DrainagePoor.Valid() || Drainage("swampy").Valid() {
		t.Error("Drainage.Valid() misclassifies")
	}
	if !SensitivityHigh.Valid() || Sensitivity("").Valid() {
		t.Error("Sensitivity.Valid() misclassifies")
	}
	if !DispersionScattered.Valid() || Dispersion("sparse").Valid() {
		t.Error("Dispersion.Valid() misclassifies")
	}
	if !DensityLow.Valid() || Density("packed").Valid() {
		t.Error("Density.Valid() misclassifies")
	}
	if !RegrowthOld.Valid() || RegrowthAge("ancient").Valid() {
		t.Error("RegrowthAge.Valid() misclassifies")
	}
	if !BillingPerHour.Valid() || BillingType("per_tree").Valid() {
		t.Error("BillingType.Valid() misclassifies")
	}
	if !SeasonWinter.Valid() || Season("monsoon").Valid() {
		t.Error("Season.Valid() misclassifies")
	}
}
