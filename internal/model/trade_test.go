package model

import (
	"encoding/json"
	"testing"
)

func TestParseTrade(t *testing.T) {
	tests := []struct {
		in         string
		wantKind   TradeKind
		wantString string
	}{
		{"plumbing", TradePlumbing, "plumbing"},
		{"  HVAC ", TradeHVAC, "hvac"},
		{"rough-framing", TradeRoughFraming, "rough-framing"},
		{"Landscaping", TradeCustom, "Landscaping"},
	}
	for _, tt := range tests {
		got := ParseTrade(tt.in)
		if got.Kind != tt.wantKind {
			t.Errorf("ParseTrade(%q).Kind = %q, want %q", tt.in, got.Kind, tt.wantKind)
		}
		if got.String() != tt.wantString {
			t.Errorf("ParseTrade(%q).String() = %q, want %q", tt.in, got.String(), tt.wantString)
		}
	}
}

func TestTrade_JSON(t *testing.T) {
	var e struct {
		Trade Trade `json:"trade"`
	}
	if err := json.Unmarshal([]byte(`{"trade":"Solar Install"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.Trade.IsCustom() {
		t.Errorf("expected custom trade, got %q", e.Trade.Kind)
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"trade":"Solar Install"}` {
		t.Errorf("unexpected encoding %s", b)
	}

	if err := json.Unmarshal([]byte(`{"trade":7}`), &e); err == nil {
		t.Error("expected error for non-string trade")
	}
}

func TestParseUnit(t *testing.T) {
	if got := ParseUnit(""); got != DefaultUnit() {
		t.Errorf("empty unit: got %+v, want each", got)
	}
	if got := ParseUnit("SQFT"); got.Kind != UnitSquareFoot {
		t.Errorf("SQFT: got %q", got.Kind)
	}
	got := ParseUnit("pallet")
	if !got.IsCustom() || got.String() != "pallet" {
		t.Errorf("pallet: got %+v", got)
	}
}

func TestUnit_Scan(t *testing.T) {
	var u Unit
	if err := u.Scan([]byte("lump_sum")); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if u.Kind != UnitLumpSum {
		t.Errorf("expected lump_sum, got %q", u.Kind)
	}
	if err := u.Scan(42); err == nil {
		t.Error("expected error for int source")
	}
}
