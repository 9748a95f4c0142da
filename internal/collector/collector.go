package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockScope/internal/cache"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"
	"StockScope/internal/recorder"
)

// Collector orchestrates data fetching, caching and pipeline runs.
type Collector struct {
	Fetcher     Fetcher
	Cache       *cache.SeriesCache // nil disables caching
	MoversCount int

	runner *pipeline.Runner
	rec    recorder.Recorder
	logger zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, sc *cache.SeriesCache, rec recorder.Recorder, logger zerolog.Logger) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{
		Fetcher:     fetcher,
		Cache:       sc,
		MoversCount: 25,
		runner:      pipeline.NewRunner(logger),
		rec:         rec,
		logger:      logger.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Source is the name of the underlying fetcher.
func (c *Collector) Source() string { return c.Fetcher.Name() }

// Bars returns the series of symbol over r, from cache when present.
// An empty answer is returned as-is and never cached; the pipeline reports it as insufficient data.
func (c *Collector) Bars(ctx context.Context, symbol string, r model.Range) (*model.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.Cache != nil {
		series, err := c.Cache.GetBars(ctx, symbol, r)
		if err == nil {
			c.logger.Debug().Str("symbol", symbol).Str("range", r.Key()).Msg("series cache hit")
			return series, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("series cache read failed")
		}
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchBars(ctx, symbol, r)
	c.rec.RecordFetch(&recorder.FetchEvent{Source: c.Source(), Kind: "bars", Duration: time.Since(start), Err: err})
	if err != nil {
		if errors.Is(err, ErrNoData) {
			c.logger.Warn().Str("symbol", symbol).Str("range", r.Key()).Msg("source returned no bars")
			return &model.PriceSeries{Symbol: symbol, Source: c.Source(), FetchedAt: time.Now().UTC()}, nil
		}
		return nil, &FetchError{Source: c.Source(), Target: symbol, Err: err}
	}

	series := &model.PriceSeries{Symbol: symbol, Source: c.Source(), Bars: bars, FetchedAt: time.Now().UTC()}
	c.logger.Info().Str("symbol", symbol).Int("bars", len(bars)).Str("range", r.Key()).Msg("fetched series")
	if c.Cache != nil && len(bars) > 0 {
		if err := c.Cache.SetBars(ctx, symbol, r, series); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("series cache write failed")
		}
	}
	return series, nil
}

// Movers returns the screen for cat, from cache when present.
func (c *Collector) Movers(ctx context.Context, cat model.Category) ([]model.Quote, error) {
	if c.Cache != nil {
		quotes, err := c.Cache.GetMovers(ctx, cat)
		if err == nil {
			return quotes, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("category", cat.Slug()).Msg("movers cache read failed")
		}
	}

	start := time.Now()
	quotes, err := c.Fetcher.FetchMovers(ctx, cat, c.MoversCount)
	c.rec.RecordFetch(&recorder.FetchEvent{Source: c.Source(), Kind: "movers", Duration: time.Since(start), Err: err})
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, &FetchError{Source: c.Source(), Target: cat.String(), Err: err}
	}

	if c.Cache != nil && len(quotes) > 0 {
		if err := c.Cache.SetMovers(ctx, cat, quotes); err != nil {
			c.logger.Warn().Err(err).Str("category", cat.Slug()).Msg("movers cache write failed")
		}
	}
	return quotes, nil
}

// Predict fetches the series of symbol over r and runs the pipeline on it.
func (c *Collector) Predict(ctx context.Context, symbol string, r model.Range, cfg pipeline.Config) (*pipeline.Result, error) {
	series, err := c.Bars(ctx, symbol, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.runner.Run(series.Symbol, series.Bars, cfg)
	evt := &recorder.RunEvent{
		Symbol:   series.Symbol,
		Source:   c.Source(),
		Bars:     len(series.Bars),
		Duration: time.Since(start),
		Err:      err,
	}
	if res != nil {
		evt.Samples = res.Samples
		evt.Accuracy = res.Evaluation.Accuracy
		evt.Degenerate = res.Evaluation.Degenerate
	}
	c.rec.RecordRun(evt)
	return res, err
}

// Invalidate drops every cached range of symbol.
func (c *Collector) Invalidate(ctx context.Context, symbol string) (int, error) {
	if c.Cache == nil {
		return 0, nil
	}
	n, err := c.Cache.Invalidate(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err == nil {
		c.logger.Info().Str("symbol", symbol).Int("removed", n).Msg("cache invalidated")
	}
	return n, err
}

// InvalidateAll drops every cached series and screen of this source.
func (c *Collector) InvalidateAll(ctx context.Context) (int, error) {
	if c.Cache == nil {
		return 0, nil
	}
	n, err := c.Cache.InvalidateAll(ctx)
	if err == nil {
		c.logger.Info().Int("removed", n).Msg("cache cleared")
	}
	return n, err
}
