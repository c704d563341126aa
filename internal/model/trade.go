package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TradeKind は工種（労務・資材カテゴリ共通）の既知区分
type TradeKind string

const (
	TradePlanning             TradeKind = "planning"
	TradeSitePrep             TradeKind = "site-prep"
	TradeExcavationFoundation TradeKind = "excavation-foundation"
	TradeUtilities            TradeKind = "utilities"
	TradeWaterSewer           TradeKind = "water-sewer"
	TradeRoughFraming         TradeKind = "rough-framing"
	TradeWindowsDoors         TradeKind = "windows-doors"
	TradeExteriorFinishes     TradeKind = "exterior-finishes"
	TradeRoofing              TradeKind = "roofing"
	TradeMasonryPaving        TradeKind = "masonry-paving"
	TradePorchesDecks         TradeKind = "porches-decks"
	TradeInsulation           TradeKind = "insulation"
	TradePlumbing             TradeKind = "plumbing"
	TradeElectrical           TradeKind = "electrical"
	TradeHVAC                 TradeKind = "hvac"
	TradeDrywall              TradeKind = "drywall"
	TradeInteriorFinishes     TradeKind = "interior-finishes"
	TradeKitchen              TradeKind = "kitchen"
	TradeBath                 TradeKind = "bath"
	TradeAppliances           TradeKind = "appliances"
	TradeOther                TradeKind = "other"

	// TradeCustom は既知区分に無い自由入力ラベル
	TradeCustom TradeKind = "custom"
)

var knownTrades = map[TradeKind]bool{
	TradePlanning: true, TradeSitePrep: true, TradeExcavationFoundation: true,
	TradeUtilities: true, TradeWaterSewer: true, TradeRoughFraming: true,
	TradeWindowsDoors: true, TradeExteriorFinishes: true, TradeRoofing: true,
	TradeMasonryPaving: true, TradePorchesDecks: true, TradeInsulation: true,
	TradePlumbing: true, TradeElectrical: true, TradeHVAC: true,
	TradeDrywall: true, TradeInteriorFinishes: true, TradeKitchen: true,
	TradeBath: true, TradeAppliances: true, TradeOther: true,
}

// Trade is an open enumeration: either a known TradeKind or TradeCustom with
// a free-form label. It encodes as a plain string in JSON and SQL.
type Trade struct {
	Kind  TradeKind
	Label string
}

// KnownTrade returns the Trade for a known kind.
func KnownTrade(kind TradeKind) Trade {
	return Trade{Kind: kind}
}

// CustomTrade returns a custom Trade carrying label.
func CustomTrade(label string) Trade {
	return Trade{Kind: TradeCustom, Label: label}
}

// ParseTrade maps s onto a known kind, falling back to a custom trade.
func ParseTrade(s string) Trade {
	k := TradeKind(strings.ToLower(strings.TrimSpace(s)))
	if knownTrades[k] {
		return Trade{Kind: k}
	}
	return CustomTrade(s)
}

// IsCustom は自由入力ラベルかどうかを返す
func (t Trade) IsCustom() bool { return t.Kind == TradeCustom }

func (t Trade) String() string {
	if t.Kind == TradeCustom {
		return t.Label
	}
	return string(t.Kind)
}

func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("trade: %w", err)
	}
	*t = ParseTrade(s)
	return nil
}

// Value implements driver.Valuer.
func (t Trade) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *Trade) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return fmt.Errorf("trade: %w", err)
	}
	*t = ParseTrade(s)
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported scan type %T", src)
	}
}
