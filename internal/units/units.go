// Package units converts raw telemetry values into the units an overlay renders
package units

import "strings"

// Kind identifies a rendering unit for a telemetry field.
type Kind string

// Unit constants
const (
	Identity      Kind = "identity"
	MetricSpeed   Kind = "metric_speed"
	ImperialSpeed Kind = "imperial_speed"
	Fahrenheit    Kind = "fahrenheit"
)

// ValidKinds contains all recognised unit kinds
var ValidKinds = []Kind{Identity, MetricSpeed, ImperialSpeed, Fahrenheit}

// aliases maps alternative spellings found in older configuration documents.
var aliases = map[string]Kind{
	"temp_fahrenheit": Fahrenheit,
	"":                Identity,
	"none":            Identity,
}

// Parse maps a unit string onto a Kind. Matching is case-insensitive.
// Unknown strings yield Identity and ok=false so callers can warn about them.
func Parse(unit string) (kind Kind, ok bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	for _, k := range ValidKinds {
		if u == string(k) {
			return k, true
		}
	}
	if k, found := aliases[u]; found {
		return k, true
	}
	return Identity, false
}

// Convert converts a raw value to the target kind.
// Speeds are stored by the camera in m/s, temperatures in degrees Celsius.
func Convert(raw float64, kind Kind) float64 {
	switch kind {
	case MetricSpeed:
		return raw * 3.6 // m/s to km/h
	case ImperialSpeed:
		return raw * 2.236936 // m/s to mph
	case Fahrenheit:
		return raw*9/5 + 32
	case Identity:
		return raw
	default:
		return raw // unknown kinds render the raw value
	}
}

// Label returns a short suffix suitable for drawing next to a converted value.
func Label(kind Kind) string {
	switch kind {
	case MetricSpeed:
		return "km/h"
	case ImperialSpeed:
		return "mph"
	case Fahrenheit:
		return "°F"
	default:
		return ""
	}
}
