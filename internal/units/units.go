// Package units converts speeds from the m/s used internally to the units
// people read results in.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// Unit is a speed unit.
type Unit string

const (
	MPS Unit = "mps"
	KPH Unit = "kph"
	MPH Unit = "mph"
)

// ErrUnknownUnit is returned by Parse for names it does not recognise.
var ErrUnknownUnit = errors.New("units: unknown speed unit")

// ValidUnits lists the accepted unit names.
var ValidUnits = []Unit{MPS, KPH, MPH}

// Parse accepts a unit name case-insensitively. "kmph" is an alias for kph.
func Parse(name string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(name))); u {
	case MPS, KPH, MPH:
		return u, nil
	case "kmph":
		return KPH, nil
	}
	return "", fmt.Errorf("%w: %q (valid: mps, kph, mph)", ErrUnknownUnit, name)
}

// Convert converts a speed in m/s to u. Infinite speeds stay infinite.
func (u Unit) Convert(mps float64) float64 {
	switch u {
	case MPH:
		return mps * 2.2369362920544
	case KPH:
		return mps * 3.6
	default:
		return mps
	}
}

// Label is the printed abbreviation for u.
func (u Unit) Label() string {
	switch u {
	case MPH:
		return "mph"
	case KPH:
		return "km/h"
	default:
		return "m/s"
	}
}
