// Package units provides the length units a calibrated plan can be expressed in
package units

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedUnit is returned for unit names outside ValidUnits.
var ErrUnsupportedUnit = errors.New("unsupported unit")

// Unit names a length unit.
type Unit string

// Unit constants
const (
	Pixels      Unit = "pixels"
	Meters      Unit = "meters"
	Feet        Unit = "feet"
	Inches      Unit = "inches"
	Centimeters Unit = "cm"
)

// ValidUnits contains all real-world units a calibration can target
var ValidUnits = []Unit{Meters, Feet, Inches, Centimeters}

// IsValid checks if the given unit is a real-world unit
func IsValid(u Unit) bool {
	for _, v := range ValidUnits {
		if u == v {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	names := make([]string, len(ValidUnits))
	for i, u := range ValidUnits {
		names[i] = string(u)
	}
	return strings.Join(names, ", ")
}

// Parse maps user input to a Unit. A few common spellings are accepted.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "meter", "meters", "metre", "metres":
		return Meters, nil
	case "ft", "foot", "feet":
		return Feet, nil
	case "in", "inch", "inches":
		return Inches, nil
	case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
		return Centimeters, nil
	case "px", "pixel", "pixels":
		return Pixels, nil
	}
	return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnsupportedUnit, s, GetValidUnitsString())
}

// MetersPer returns how many meters one u is.
func MetersPer(u Unit) (float64, error) {
	switch u {
	case Meters:
		return 1, nil
	case Feet:
		return 0.3048, nil
	case Inches:
		return 0.0254, nil
	case Centimeters:
		return 0.01, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, u)
	}
}

// SquareMetersTo returns the multiplier from square meters to square u.
// These are the rounded factors used on printed plans, not the exact
// squares of MetersPer.
func SquareMetersTo(u Unit) (float64, error) {
	switch u {
	case Meters:
		return 1, nil
	case Feet:
		return 10.7639, nil
	case Inches:
		return 1550, nil
	case Centimeters:
		return 10000, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, u)
	}
}

// ToMeters converts a length in u to meters.
func ToMeters(v float64, u Unit) (float64, error) {
	f, err := MetersPer(u)
	if err != nil {
		return 0, err
	}
	return v * f, nil
}

// FromMeters converts a length in meters to u.
func FromMeters(v float64, u Unit) (float64, error) {
	f, err := MetersPer(u)
	if err != nil {
		return 0, err
	}
	return v / f, nil
}
