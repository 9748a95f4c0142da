package model

import (
	"fmt"
	"strings"
	"time"
)

// Feature names one column of the feature vector.
type Feature string

const (
	FeatureSMAShort Feature = "sma_short"
	FeatureSMALong  Feature = "sma_long"
	FeatureRSI      Feature = "rsi"
	FeatureMACD     Feature = "macd"
)

// DefaultFeatures is the full feature set in canonical order.
var DefaultFeatures = []Feature{FeatureSMAShort, FeatureSMALong, FeatureRSI, FeatureMACD}

// ParseFeature accepts the canonical names plus the upper-case column labels (SMA_short, RSI, ...).
func ParseFeature(s string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FeatureSMAShort, FeatureSMALong, FeatureRSI, FeatureMACD:
		return f, nil
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

// LabeledSample is one training row: indicator features and whether the next close was higher.
type LabeledSample struct {
	Time     time.Time `json:"time"`
	Features []float64 `json:"features"`
	Label    int       `json:"label"`
}
