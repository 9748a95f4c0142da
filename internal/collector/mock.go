package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"StockScope/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Without fixed data it generates a deterministic walk per symbol.
type MockFetcher struct {
	Price  float64
	Bars   []model.PriceBar
	Quotes []model.Quote
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, r model.Range) ([]model.PriceBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	base := m.Price
	if base <= 0 {
		base = 100
	}
	return generateMockBars(symbol, base, r), nil
}

func (m *MockFetcher) FetchMovers(_ context.Context, cat model.Category, count int) ([]model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	quotes := m.Quotes
	if quotes == nil {
		quotes = defaultMockQuotes()
	}
	quotes = append([]model.Quote(nil), quotes...)
	switch cat {
	case model.CategoryMostActive:
		sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Volume > quotes[j].Volume })
	case model.CategoryTopGainers:
		sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].ChangePercent > quotes[j].ChangePercent })
	case model.CategoryTopLosers:
		sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].ChangePercent < quotes[j].ChangePercent })
	}
	if count > 0 && len(quotes) > count {
		quotes = quotes[:count]
	}
	return quotes, nil
}

// generateMockBars emits one weekday bar per day (or one per week) across r.
func generateMockBars(symbol string, basePrice float64, r model.Range) []model.PriceBar {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	step := 24 * time.Hour
	if r.Interval == model.IntervalWeekly {
		step = 7 * step
	}
	from := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 0, 0, 0, 0, time.UTC)

	var bars []model.PriceBar
	p := basePrice
	i := 0
	for t := from; !t.After(to); t = t.Add(step) {
		if step == 24*time.Hour && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
			continue
		}
		drift := 0.004 * math.Sin(float64(i)/9)
		p *= 1 + drift + 0.01*rng.NormFloat64()
		bars = append(bars, model.PriceBar{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1e6 * (1 + rng.Float64()),
		})
		i++
	}
	return bars
}

func defaultMockQuotes() []model.Quote {
	return []model.Quote{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: 189.5, Change: 2.1, ChangePercent: 1.12, Volume: 58e6, MarketCap: 2.9e12},
		{Symbol: "TSLA", Name: "Tesla, Inc.", Price: 242.8, Change: -9.6, ChangePercent: -3.8, Volume: 121e6, MarketCap: 7.7e11},
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Price: 478.2, Change: 21.3, ChangePercent: 4.66, Volume: 49e6, MarketCap: 1.18e12},
		{Symbol: "AMD", Name: "Advanced Micro Devices", Price: 121.4, Change: -2.2, ChangePercent: -1.78, Volume: 63e6, MarketCap: 1.96e11},
		{Symbol: "F", Name: "Ford Motor Company", Price: 11.9, Change: 0.31, ChangePercent: 2.67, Volume: 88e6, MarketCap: 4.7e10},
	}
}
