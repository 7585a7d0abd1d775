package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"£1,234.50", "1234.5", true},
		{"\uFFFD45.00", "45", true},
		{" $7 ", "7", true},
		{"€0.99", "0.99", true},
		{"-3", "-3", true},
		{"(12.00)", "-12", true},
		{"£-8.10", "-8.1", true},
		{"", "", false},
		{"   ", "", false},
		{"£", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"--5", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseAmount(%q) unexpected error: %v", tc.in, err)
				continue
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err != ErrInvalidAmount {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tc.in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("3.5")); got != "3.50" {
		t.Fatalf("FormatAmount = %q", got)
	}
}
