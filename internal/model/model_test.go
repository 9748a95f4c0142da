package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseCategory_RoundTrip(t *testing.T) {
	for _, c := range Categories {
		for _, s := range []string{c.String(), c.Slug()} {
			got, err := ParseCategory(s)
			if err != nil {
				t.Fatalf("ParseCategory(%q): %v", s, err)
			}
			if got != c {
				t.Errorf("ParseCategory(%q) = %v, want %v", s, got, c)
			}
		}
	}
}

func TestParseCategory_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"most_active", CategoryMostActive},
		{"  ACTIVE ", CategoryMostActive},
		{"day-gainers", CategoryTopGainers},
		{"Top Losers", CategoryTopLosers},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseCategory("crypto"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestValidateSeries(t *testing.T) {
	day := func(d int) PriceBar { return PriceBar{Time: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)} }

	if err := ValidateSeries([]PriceBar{day(1), day(2), day(3)}); err != nil {
		t.Fatalf("ordered series rejected: %v", err)
	}
	for name, bars := range map[string][]PriceBar{
		"duplicate": {day(1), day(2), day(2)},
		"reversed":  {day(3), day(2)},
	} {
		if err := ValidateSeries(bars); !errors.Is(err, ErrUnorderedSeries) {
			t.Errorf("%s: expected ErrUnorderedSeries, got %v", name, err)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	in := []Value{Some(1.5), {}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.5,null]" {
		t.Fatalf("unexpected encoding %s", data)
	}

	var out []Value
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out[0].Valid || out[0].V != 1.5 || out[1].Valid {
		t.Errorf("unexpected decode %+v", out)
	}
}
