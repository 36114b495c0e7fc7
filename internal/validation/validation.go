// Package validation checks chantier estimation requests before any
// provider call or calculation runs. Every violated rule is reported, not
// just the first, so a client can fix a form in one round trip.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aristee/chantier-service/internal/models"
)

// Bounds for free-text fields, in runes.
const (
	nameMinLen = 2
	nameMaxLen = 120
)

// Practical ceilings. Anything past them is a typo, not a chantier.
const (
	maxVolume            = 100000 // m³
	maxTransportDistance = 2000   // km
	maxHaulingDistance   = 10000  // m
)

// FieldError ties a violation to the input field it concerns.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full set of violations for one request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid chantier: " + strings.Join(parts, "; ")
}

// ValidateChantier checks the request fields. Environment is ignored; it
// is populated by the service, never accepted from the client.
func ValidateChantier(input models.ChantierInput) error {
	var errs Errors
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	name := strings.TrimSpace(input.Name)
	switch n := len([]rune(name)); {
	case n == 0:
		add("name", "is required")
	case n < nameMinLen:
		add("name", "must be at least %d characters", nameMinLen)
	case n > nameMaxLen:
		add("name", "must be at most %d characters", nameMaxLen)
	default:
		for _, r := range name {
			if !isAllowedNameRune(r) {
				add("name", "contains invalid characters")
				break
			}
		}
	}

	if !input.Type.Valid() {
		add("type", "must be one of per_volume, per_hour")
	}

	if input.InvoicedPrice <= 0 {
		add("invoicedPrice", "must be positive")
	}

	switch {
	case input.Volume <= 0:
		add("volume", "must be positive")
	case input.Volume > maxVolume:
		add("volume", "must be at most %d m³", maxVolume)
	}

	switch {
	case input.TransportDistance < 0:
		add("transportDistance", "must not be negative")
	case input.TransportDistance > maxTransportDistance:
		add("transportDistance", "must be at most %d km", maxTransportDistance)
	}

	switch {
	case input.HaulingDistance < 0:
		add("haulingDistance", "must not be negative")
	case input.HaulingDistance > maxHaulingDistance:
		add("haulingDistance", "must be at most %d m", maxHaulingDistance)
	}

	if lat := input.Location.Latitude; lat < -90 || lat > 90 {
		add("location.latitude", "must be between -90 and 90")
	}
	if lon := input.Location.Longitude; lon < -180 || lon > 180 {
		add("location.longitude", "must be between -180 and 180")
	}

	if !input.Dispersion.Valid() {
		add("dispersion", "must be one of grouped, medium, scattered")
	}
	if !input.Density.Valid() {
		add("density", "must be one of low, medium, high")
	}
	if !input.Regrowth.Valid() {
		add("regrowth", "must be one of recent, medium, old")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// isAllowedNameRune permits letters (Unicode), digits, space and common
// punctuation seen in parcel names.
func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'', '(', ')', '/':
		return true
	}
	return false
}
