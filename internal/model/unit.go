package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// UnitKind は資材数量の既知単位
type UnitKind string

const (
	UnitEach       UnitKind = "each"
	UnitLinearFoot UnitKind = "linear_ft"
	UnitSquareFoot UnitKind = "sqft"
	UnitSquareYard UnitKind = "sqyd"
	UnitCubicYard  UnitKind = "cuyd"
	UnitSheet      UnitKind = "sheet"
	UnitBox        UnitKind = "box"
	UnitBag        UnitKind = "bag"
	UnitGallon     UnitKind = "gallon"
	UnitPound      UnitKind = "lb"
	UnitTon        UnitKind = "ton"
	UnitHour       UnitKind = "hour"
	UnitDay        UnitKind = "day"
	UnitLumpSum    UnitKind = "lump_sum"

	UnitCustom UnitKind = "custom"
)

var knownUnits = map[UnitKind]bool{
	UnitEach: true, UnitLinearFoot: true, UnitSquareFoot: true,
	UnitSquareYard: true, UnitCubicYard: true, UnitSheet: true,
	UnitBox: true, UnitBag: true, UnitGallon: true, UnitPound: true,
	UnitTon: true, UnitHour: true, UnitDay: true, UnitLumpSum: true,
}

// Unit is the unit of measure of a material entry. The zero value is not a
// valid unit; entries default to "each".
type Unit struct {
	Kind  UnitKind
	Label string
}

// DefaultUnit は入力に単位が無い場合の単位
func DefaultUnit() Unit { return Unit{Kind: UnitEach} }

// ParseUnit maps s onto a known unit, falling back to a custom unit.
// An empty string yields DefaultUnit.
func ParseUnit(s string) Unit {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return DefaultUnit()
	}
	k := UnitKind(strings.ToLower(trimmed))
	if knownUnits[k] {
		return Unit{Kind: k}
	}
	return Unit{Kind: UnitCustom, Label: s}
}

func (u Unit) IsCustom() bool { return u.Kind == UnitCustom }

func (u Unit) String() string {
	if u.Kind == UnitCustom {
		return u.Label
	}
	return string(u.Kind)
}

func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Unit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unit: %w", err)
	}
	*u = ParseUnit(s)
	return nil
}

// Value implements driver.Valuer.
func (u Unit) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements sql.Scanner.
func (u *Unit) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return fmt.Errorf("unit: %w", err)
	}
	*u = ParseUnit(s)
	return nil
}
