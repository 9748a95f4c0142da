package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockScope/internal/model"
	"StockScope/internal/recorder"
)

// SeriesCache stores fetched price series and screener results for one data source.
// Entries are keyed by (symbol, range) and live until their TTL passes or a caller invalidates them.
type SeriesCache struct {
	store  Store
	source string
	ttl    time.Duration
	rec    recorder.Recorder
}

// NewSeriesCache wraps store. A nil recorder disables lookup metrics.
func NewSeriesCache(store Store, source string, ttl time.Duration, rec recorder.Recorder) *SeriesCache {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &SeriesCache{store: store, source: source, ttl: ttl, rec: rec}
}

// BarsKey is the key of one (symbol, range) series.
func (c *SeriesCache) BarsKey(symbol string, r model.Range) string {
	return fmt.Sprintf("%s%s", c.symbolPrefix(symbol), r.Key())
}

// MoversKey is the key of one screener category.
func (c *SeriesCache) MoversKey(cat model.Category) string {
	return fmt.Sprintf("movers:%s:%s", c.source, cat.Slug())
}

func (c *SeriesCache) symbolPrefix(symbol string) string {
	return fmt.Sprintf("bars:%s:%s:", c.source, normalizeSymbol(symbol))
}

// GetBars returns the cached series, or ErrCacheMiss.
func (c *SeriesCache) GetBars(ctx context.Context, symbol string, r model.Range) (*model.PriceSeries, error) {
	var series model.PriceSeries
	if err := c.get(ctx, "bars", c.BarsKey(symbol, r), &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// SetBars caches series under (symbol, range).
func (c *SeriesCache) SetBars(ctx context.Context, symbol string, r model.Range, series *model.PriceSeries) error {
	return c.set(ctx, c.BarsKey(symbol, r), series)
}

// GetMovers returns the cached screener rows, or ErrCacheMiss.
func (c *SeriesCache) GetMovers(ctx context.Context, cat model.Category) ([]model.Quote, error) {
	var quotes []model.Quote
	if err := c.get(ctx, "movers", c.MoversKey(cat), &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// SetMovers caches screener rows for cat.
func (c *SeriesCache) SetMovers(ctx context.Context, cat model.Category, quotes []model.Quote) error {
	return c.set(ctx, c.MoversKey(cat), quotes)
}

// Invalidate drops every cached range of symbol and returns how many entries went.
func (c *SeriesCache) Invalidate(ctx context.Context, symbol string) (int, error) {
	n, err := c.store.DeleteByPrefix(ctx, c.symbolPrefix(symbol))
	if err != nil {
		return n, fmt.Errorf("invalidate %s: %w", symbol, err)
	}
	c.rec.RecordInvalidation("symbol", n)
	return n, nil
}

// InvalidateAll drops every series and screener entry of this source.
func (c *SeriesCache) InvalidateAll(ctx context.Context) (int, error) {
	total := 0
	for _, prefix := range []string{"bars:" + c.source + ":", "movers:" + c.source + ":"} {
		n, err := c.store.DeleteByPrefix(ctx, prefix)
		total += n
		if err != nil {
			return total, fmt.Errorf("invalidate all: %w", err)
		}
	}
	c.rec.RecordInvalidation("all", total)
	return total, nil
}

// Close releases the backing store.
func (c *SeriesCache) Close() error {
	return c.store.Close()
}

func (c *SeriesCache) get(ctx context.Context, kind, key string, dest any) error {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			c.rec.RecordCacheLookup(kind, false)
		}
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry is dropped and reported as a miss.
		_ = c.store.Delete(ctx, key)
		c.rec.RecordCacheLookup(kind, false)
		return ErrCacheMiss
	}
	c.rec.RecordCacheLookup(kind, true)
	return nil
}

func (c *SeriesCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.store.Set(ctx, key, data, c.ttl)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
