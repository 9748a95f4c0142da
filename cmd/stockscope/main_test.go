package main

import (
	"flag"
	"io"
	"testing"
	"time"

	"StockScope/internal/config"
	"StockScope/internal/model"
)

func TestResolveRange(t *testing.T) {
	cfg := config.Default()
	cfg.Model.LookbackDays = 30

	r, err := resolveRange(cfg, "", "2024-03-31", "1wk")
	if err != nil {
		t.Fatal(err)
	}
	if r.Interval != model.IntervalWeekly || !r.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected range %+v", r)
	}

	r, err = resolveRange(cfg, "2024-01-02", "2024-03-31", "")
	if err != nil {
		t.Fatal(err)
	}
	if r.From.Format(time.DateOnly) != "2024-01-02" || r.Interval != model.IntervalDaily {
		t.Errorf("unexpected range %+v", r)
	}

	for _, bad := range [][3]string{
		{"2024-04-01", "2024-03-31", ""},
		{"", "31/03/2024", ""},
		{"", "", "1h"},
	} {
		if _, err := resolveRange(cfg, bad[0], bad[1], bad[2]); err == nil {
			t.Errorf("resolveRange(%q) should fail", bad)
		}
	}
}

func TestIsSet_ExplicitZeroSeed(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-seed", "0"}, true},
		{[]string{"-seed=17", "AAPL"}, true},
	}
	for _, tt := range tests {
		fs := flag.NewFlagSet("predict", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.Int64("seed", 0, "")
		if err := fs.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		if got := isSet(fs, "seed"); got != tt.want {
			t.Errorf("isSet(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
