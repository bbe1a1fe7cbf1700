// Package units normalizes ingredient quantities to the base unit used by
// production planning.
package units

import (
	"strings"

	"github.com/shopspring/decimal"

	"foodprod/internal/core/types"
)

// UnitOfMeasurement is the unit declared on an ingredient or compound.
type UnitOfMeasurement string

const (
	KG    UnitOfMeasurement = "KG"
	Gms   UnitOfMeasurement = "Gms"
	Lit   UnitOfMeasurement = "Lit"
	Mls   UnitOfMeasurement = "Mls"
	Pack  UnitOfMeasurement = "Pack"
	Dozen UnitOfMeasurement = "Dozen"
	Units UnitOfMeasurement = "Units"
)

// BaseUnit is the label reported for normalized quantities.
const BaseUnit = "kg"

var gramsPerKilogram = decimal.NewFromInt(1000)

// Valid reports whether u is one of the declared units.
func (u UnitOfMeasurement) Valid() bool {
	switch u {
	case KG, Gms, Lit, Mls, Pack, Dozen, Units:
		return true
	}
	return false
}

// Conversion describes how a value was normalized.
type Conversion struct {
	// Scaled is true when the value was divided into kilograms.
	Scaled bool
	// Recognized is false for units the converter has never heard of.
	// Such values pass through unchanged.
	Recognized bool
}

// ToBaseUnit divides gram quantities by 1000 and returns every other unit
// unchanged. Only "g" and "gms" (any case) are scaled; Mls and the rest are
// assumed to be in base form already.
func ToBaseUnit(value types.Quantity, unit string) types.Quantity {
	v, _ := Convert(value, unit)
	return v
}

// Convert is ToBaseUnit plus a report of what happened.
func Convert(value types.Quantity, unit string) (types.Quantity, Conversion) {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "g", "gms":
		return value.Div(gramsPerKilogram), Conversion{Scaled: true, Recognized: true}
	case "kg", "lit", "mls", "pack", "dozen", "units":
		return value, Conversion{Recognized: true}
	}
	return value, Conversion{}
}
