package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"12.34", "12.34"},
		{" 2.50 ", "2.5"},
		{"-7", "-7"},
		{"0", "0"},
		{"", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in).String(); got != tc.out {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.out)
		}
	}
}

func TestAmountUnmarshalCoercion(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{`12.5`, "12.5"},
		{`"12.5"`, "12.5"},
		{`"  3 "`, "3"},
		{`null`, "0"},
		{`""`, "0"},
		{`"abc"`, "0"},
		{`{}`, "0"},
		{`[1]`, "0"},
	}
	for _, tc := range cases {
		var a Amount
		if err := json.Unmarshal([]byte(tc.in), &a); err != nil {
			t.Fatalf("unmarshal %q: unexpected error %v", tc.in, err)
		}
		if a.String() != tc.out {
			t.Fatalf("unmarshal %q = %s, want %s", tc.in, a.String(), tc.out)
		}
	}
}

func TestAmountAbsentFieldIsZero(t *testing.T) {
	var it LineItem
	if err := json.Unmarshal([]byte(`{"name":"x"}`), &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !it.Quantity.IsZero() || !it.UnitPrice.IsZero() {
		t.Fatalf("absent numeric fields should be zero, got qty=%s price=%s", it.Quantity, it.UnitPrice)
	}
}

func TestAmountMarshalIsBareNumber(t *testing.T) {
	b, err := json.Marshal(ParseAmount("12.40"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "12.4" {
		t.Fatalf("marshal = %s, want 12.4", b)
	}
}

func TestAmountArithmetic(t *testing.T) {
	line := AmountFromInt(200)
	disc := line.Percent(AmountFromInt(10))
	if disc.String() != "20" {
		t.Fatalf("10%% of 200 = %s, want 20", disc)
	}
	tax := line.Sub(disc).Percent(AmountFromInt(18))
	if tax.String() != "32.4" {
		t.Fatalf("18%% of 180 = %s, want 32.4", tax)
	}
	if got := AmountFromInt(-5).ClampNonNegative(); !got.IsZero() {
		t.Fatalf("clamp(-5) = %s, want 0", got)
	}
	if got := AmountFromInt(5).ClampNonNegative(); got.String() != "5" {
		t.Fatalf("clamp(5) = %s, want 5", got)
	}
}
