package collector

import (
	"context"
	"errors"
	"fmt"

	"StockScope/internal/model"
)

var (
	// ErrUnsupported is returned when a source has no endpoint for a request kind.
	ErrUnsupported = errors.New("not supported by data source")
	// ErrNoData is returned when a source answers without any usable rows.
	ErrNoData = errors.New("no data returned")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, r model.Range) ([]model.PriceBar, error)
	FetchMovers(ctx context.Context, cat model.Category, count int) ([]model.Quote, error)
	Name() string
}

// FetchError wraps a failure of the external data source.
type FetchError struct {
	Source string
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
