package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriod is returned for a non-positive or inconsistent window.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInsufficientData is returned when the series is shorter than the longest window.
	ErrInsufficientData = errors.New("insufficient data")
)

// InsufficientDataError reports how many bars were available against how many a window needs.
type InsufficientDataError struct {
	Window string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d bars, need %d", e.Window, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
