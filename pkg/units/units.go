// Package units converts free-text values such as "10 km" or "300 km/h" into
// SI base units.
//
// A value is a number, optional whitespace and an optional unit made of
// letters and '/'. Input is case-insensitive. A bare number is taken to be in
// the base unit of the quantity (meters, meters/second, degrees, seconds).
package units

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/ballistics-client/internal/types"
)

var valueUnit = regexp.MustCompile(`^(.*?)\s*([a-z/]+)?$`)

var distanceUnits = map[string]float64{
	"mm": 0.001,
	"cm": 0.01,
	"m":  1,
	"km": 1000,
	"in": 0.0254,
	"ft": 0.3048,
	"mi": 1609.344,
}

var speedUnits = map[string]float64{
	"m/s":  1,
	"mps":  1,
	"km/s": 1000,
	"km/h": 1000.0 / 3600,
	"kmph": 1000.0 / 3600,
	"kph":  1000.0 / 3600,
	"mph":  1609.344 / 3600,
}

var angleUnits = map[string]float64{
	"deg": math.Pi / 180,
	"rad": 1,
}

var timeUnits = map[string]float64{
	"ms":  0.001,
	"s":   1,
	"min": 60,
	"h":   3600,
	"d":   86400,
}

// Split separates the numeric part of s from its unit. The unit is empty when
// none was given.
func Split(s string) (value, unit string) {
	m := valueUnit.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return s, ""
	}
	return m[1], m[2]
}

// ParseNumber parses a plain number with no unit.
func ParseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errorsmod.Wrapf(types.ErrInvalidUnit, "not a number: %q", s)
	}
	return v, nil
}

// ParseDistance returns s in meters.
func ParseDistance(s string) (float64, error) {
	return parse(s, distanceUnits, 1, "distance")
}

// ParseSpeed returns s in meters/second.
func ParseSpeed(s string) (float64, error) {
	return parse(s, speedUnits, 1, "speed")
}

// ParseAngle returns s in radians. A bare number is in degrees.
func ParseAngle(s string) (float64, error) {
	return parse(s, angleUnits, math.Pi/180, "angle")
}

// ParseDuration returns s in seconds.
func ParseDuration(s string) (float64, error) {
	return parse(s, timeUnits, 1, "duration")
}

func parse(s string, table map[string]float64, bare float64, kind string) (float64, error) {
	value, unit := Split(s)
	v, err := ParseNumber(value)
	if err != nil {
		return 0, err
	}
	if unit == "" {
		return v * bare, nil
	}
	factor, ok := table[unit]
	if !ok {
		return 0, errorsmod.Wrapf(types.ErrInvalidUnit, "unknown %s unit %q (want one of %s)",
			kind, unit, strings.Join(Names(table), ", "))
	}
	return v * factor, nil
}

// Names lists the units of a table in sorted order.
func Names(table map[string]float64) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DistanceUnits lists the accepted distance units.
func DistanceUnits() []string { return Names(distanceUnits) }

// SpeedUnits lists the accepted speed units.
func SpeedUnits() []string { return Names(speedUnits) }
