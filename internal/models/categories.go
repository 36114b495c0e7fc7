package models

import "time"

// Drainage is the soil's water-shedding capacity, derived from texture.
type Drainage string

const (
	DrainageExcellent Drainage = "excellent"
	DrainageGood      Drainage = "good"
	DrainageMedium    Drainage = "medium"
	DrainagePoor      Drainage = "poor"
)

// Valid reports whether d is one of the known drainage classes.
func (d Drainage) Valid() bool {
	switch d {
	case DrainageExcellent, DrainageGood, DrainageMedium, DrainagePoor:
		return true
	}
	return false
}

// Sensitivity is the soil's susceptibility to rutting under machine traffic.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return true
	}
	return false
}

// Difficulty classifies the terrain for the operator, derived from slope.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Dispersion describes how spatially concentrated the felled trees are
// within the parcel.
type Dispersion string

const (
	DispersionGrouped   Dispersion = "grouped"
	DispersionMedium    Dispersion = "medium"
	DispersionScattered Dispersion = "scattered"
)

func (d Dispersion) Valid() bool {
	switch d {
	case DispersionGrouped, DispersionMedium, DispersionScattered:
		return true
	}
	return false
}

// Density describes how many trees the parcel holds. Dense parcels mean
// small per-tree volumes and more round trips.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityHigh   Density = "high"
)

func (d Density) Valid() bool {
	switch d {
	case DensityLow, DensityMedium, DensityHigh:
		return true
	}
	return false
}

// RegrowthAge is the elapsed time since felling. Older cuts hide logs under
// regrown vegetation and slow every cycle down.
type RegrowthAge string

const (
	RegrowthRecent RegrowthAge = "recent"
	RegrowthMedium RegrowthAge = "medium"
	RegrowthOld    RegrowthAge = "old"
)

func (r RegrowthAge) Valid() bool {
	switch r {
	case RegrowthRecent, RegrowthMedium, RegrowthOld:
		return true
	}
	return false
}

// BillingType is how the chantier is invoiced.
type BillingType string

const (
	BillingPerVolume BillingType = "per_volume"
	BillingPerHour   BillingType = "per_hour"
)

func (b BillingType) Valid() bool {
	switch b {
	case BillingPerVolume, BillingPerHour:
		return true
	}
	return false
}

// Season is the calendar season at estimation time.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return true
	}
	return false
}

// SeasonOf maps a date to its calendar season: Mar-May spring, Jun-Aug
// summer, Sep-Nov autumn, Dec-Feb winter.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}
