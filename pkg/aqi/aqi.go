package aqi

import (
	"fmt"
	"math"
	"strconv"
)

// Severity is the coarse air-quality bucket an AQI value falls into.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityGood
	SeverityModerate
	SeverityUnhealthySG
	SeverityUnhealthyPlus
)

var severityNames = [...]string{
	SeverityUnknown:       "unknown",
	SeverityGood:          "good",
	SeverityModerate:      "moderate",
	SeverityUnhealthySG:   "unhealthy_sg",
	SeverityUnhealthyPlus: "unhealthy_plus",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText encodes the severity as its snake_case name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Upper bounds (exclusive) of each bucket.
const (
	goodBelow        = 50
	moderateBelow    = 100
	unhealthySGBelow = 150
)

// Category is the classification result shown next to a reading.
type Category struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Color returns the badge colour used by renderers.
func (c Category) Color() string {
	switch c.Severity {
	case SeverityGood:
		return "green"
	case SeverityModerate:
		return "yellow"
	case SeverityUnhealthySG:
		return "orange"
	case SeverityUnhealthyPlus:
		return "red"
	default:
		return "gray"
	}
}

// Classify maps an AQI value to its category. A nil value (no reading) and NaN
// both classify as unknown.
func Classify(value *float64) Category {
	if value == nil || math.IsNaN(*value) {
		return Category{Label: "N/A", Severity: SeverityUnknown}
	}
	v := *value
	switch {
	case v < goodBelow:
		return Category{Label: "Good", Severity: SeverityGood}
	case v < moderateBelow:
		return Category{Label: "Moderate", Severity: SeverityModerate}
	case v < unhealthySGBelow:
		return Category{Label: "Unhealthy (SG)", Severity: SeverityUnhealthySG}
	default:
		return Category{Label: "Unhealthy+", Severity: SeverityUnhealthyPlus}
	}
}

// Badge renders the label with the raw value appended, e.g. "Good · 42".
func Badge(value *float64) string {
	c := Classify(value)
	if c.Severity == SeverityUnknown {
		return c.Label
	}
	return c.Label + " · " + strconv.FormatFloat(*value, 'f', -1, 64)
}
