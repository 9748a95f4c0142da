package model

import "time"

// WarningKind classifies a non-fatal pipeline warning.
type WarningKind string

// WarningDegenerateClass flags a test partition holding only one label.
const WarningDegenerateClass WarningKind = "DEGENERATE_CLASS"

// Warning is a non-fatal condition surfaced alongside a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Evaluation is the held-out score of a trained ensemble.
type Evaluation struct {
	Accuracy   float64   `json:"accuracy"`
	TrainSize  int       `json:"train_size"`
	TestSize   int       `json:"test_size"`
	TestUp     int       `json:"test_up"`
	TestDown   int       `json:"test_down"`
	Trees      int       `json:"trees"`
	Seed       int64     `json:"seed"`
	Degenerate bool      `json:"degenerate"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// Direction is the predicted move of the next close.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Forecast is the ensemble's call for the bar after the last one.
type Forecast struct {
	AsOf        time.Time `json:"as_of"`
	LastClose   float64   `json:"last_close"`
	Direction   Direction `json:"direction"`
	Probability float64   `json:"probability_up"`
}
