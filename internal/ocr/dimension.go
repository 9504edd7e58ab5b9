package ocr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// ErrNoDimension is returned when a label does not hold a length.
var ErrNoDimension = errors.New("no dimension found")

// Dimension is a length read from a label, in the unit printed on the plan.
type Dimension struct {
	Text  string     `json:"text"`
	Value float64    `json:"value"`
	Unit  units.Unit `json:"unit"`
}

// Meters returns the dimension converted to meters.
func (d Dimension) Meters() float64 {
	m, err := units.ToMeters(d.Value, d.Unit)
	if err != nil {
		return 0
	}
	return m
}

// number, then either a foot mark with optional inches, an inch mark, or a unit word.
var dimensionPattern = regexp.MustCompile(
	`(?i)(\d+(?:[.,]\d+)?)\s*(?:(['′])\s*(?:-?\s*(\d+(?:[.,]\d+)?)\s*(?:"|″|'')?)?|("|″)|(meters|meter|metres|metre|inches|inch|feet|foot|mm|cm|ft|in|m)\b)`)

// ParseDimension parses a single label such as "12.5 m", "450cm", "12 ft",
// "3'6\"" or "42\"". Surrounding whitespace is ignored; any other text is not.
func ParseDimension(text string) (Dimension, error) {
	s := strings.TrimSpace(text)
	loc := dimensionPattern.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return Dimension{}, fmt.Errorf("%w: %q", ErrNoDimension, text)
	}
	return dimensionFromMatch(s, loc)
}

// FindDimensions returns every dimension embedded in free text, in order.
// Matches that parse to a non-positive length are dropped.
func FindDimensions(text string) []Dimension {
	var out []Dimension
	for _, loc := range dimensionPattern.FindAllStringSubmatchIndex(text, -1) {
		d, err := dimensionFromMatch(text, loc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func dimensionFromMatch(s string, loc []int) (Dimension, error) {
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return s[loc[2*i]:loc[2*i+1]]
	}

	value, err := parseNumber(group(1))
	if err != nil {
		return Dimension{}, err
	}
	d := Dimension{Text: strings.TrimSpace(s[loc[0]:loc[1]])}

	switch {
	case group(2) != "":
		d.Unit = units.Feet
		d.Value = value
		if in := group(3); in != "" {
			inches, err := parseNumber(in)
			if err != nil {
				return Dimension{}, err
			}
			d.Value += inches / 12
		}
	case group(4) != "":
		d.Unit = units.Inches
		d.Value = value
	default:
		word := strings.ToLower(group(5))
		if word == "mm" {
			d.Unit = units.Centimeters
			d.Value = value / 10
			break
		}
		u, err := units.Parse(word)
		if err != nil {
			return Dimension{}, err
		}
		d.Unit = u
		d.Value = value
	}

	if d.Value <= 0 {
		return Dimension{}, fmt.Errorf("%w: non-positive length in %q", ErrNoDimension, d.Text)
	}
	return d, nil
}

// parseNumber accepts a comma as decimal separator.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoDimension, s)
	}
	return v, nil
}
