package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"StockScope/internal/cache"
	"StockScope/internal/collector"
	"StockScope/internal/config"
	"StockScope/internal/httpx"
	"StockScope/internal/logging"
	"StockScope/internal/recorder"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg       *config.Config
	collector *collector.Collector
	metrics   *recorder.PrometheusRecorder
	series    *cache.SeriesCache
	logger    zerolog.Logger
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	client, err := httpx.NewClient(httpx.Options{
		Timeout:        cfg.DataSource.Timeout,
		RequestsPerSec: cfg.DataSource.RequestsPerSec,
		MaxRetries:     cfg.DataSource.MaxRetries,
		ProxyURL:       cfg.Proxy,
		Logger:         logging.Component(logger, "httpx"),
	})
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Name {
	case "twelvedata":
		if cfg.DataSource.TwelveAPIKey == "" {
			return nil, errors.New("data_source.twelvedata_api_key (TWELVE_API_KEY) is required for twelvedata")
		}
		fetcher = collector.NewTwelveDataFetcher(client, cfg.DataSource.TwelveAPIKey, logger)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(client)
	}
	logger.Info().Str("source", fetcher.Name()).Msg("data source selected")

	rec := recorder.NewPrometheusRecorder()

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		rs, err := cache.NewRedisStore(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		store = rs
	case "memory":
		store = cache.NewMemoryStore(
			cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
			cache.WithMemoryCleanup(time.Minute),
		)
	}

	var sc *cache.SeriesCache
	if store != nil {
		sc = cache.NewSeriesCache(store, fetcher.Name(), cfg.Cache.TTL, rec)
		logger.Info().Str("backend", cfg.Cache.Backend).Dur("ttl", cfg.Cache.TTL).Msg("series cache enabled")
	}

	col := collector.NewCollector(fetcher, sc, rec, logger)
	col.MoversCount = cfg.DataSource.MoversCount

	return &app{cfg: cfg, collector: col, metrics: rec, series: sc, logger: logger}, nil
}

func (a *app) Close() {
	if a.series != nil {
		if err := a.series.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close cache")
		}
	}
	_ = a.metrics.Close()
}
