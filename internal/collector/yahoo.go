package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockScope/internal/httpx"
	"StockScope/internal/model"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *httpx.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// yahooScreens maps each category to its predefined Yahoo screener.
var yahooScreens = map[model.Category]string{
	model.CategoryMostActive: "most_actives",
	model.CategoryTopGainers: "day_gainers",
	model.CategoryTopLosers:  "day_losers",
}

// YahooScreenID returns the screener id serving cat.
func YahooScreenID(cat model.Category) (string, bool) {
	id, ok := yahooScreens[cat]
	return id, ok
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(client *httpx.Client) *YahooFetcher {
	return &YahooFetcher{
		Client:  client,
		BaseURL: "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	// Forex pairs such as EURUSD are quoted as EURUSD=X.
	if len(symbol) == 6 && isForexPair(symbol) {
		return strings.ToUpper(symbol) + "=X"
	}
	return symbol
}

var currencies = map[string]bool{
	"USD": true, "EUR": true, "JPY": true, "GBP": true, "CHF": true,
	"AUD": true, "CAD": true, "NZD": true, "CNY": true, "HKD": true,
}

func isForexPair(symbol string) bool {
	s := strings.ToUpper(symbol)
	return currencies[s[:3]] && currencies[s[3:]] && s[:3] != s[3:]
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// FetchBars returns the bars of symbol between r.From and r.To inclusive.
func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, r model.Range) ([]model.PriceBar, error) {
	interval := r.Interval
	if interval == "" {
		interval = model.IntervalDaily
	}
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(r.From.Unix(), 10))
	q.Set("period2", strconv.FormatInt(r.To.Add(24*time.Hour).Unix(), 10))
	q.Set("interval", string(interval))
	q.Set("events", "history")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	var chart yahooChart
	if err := f.Client.GetJSON(ctx, u, nil, &chart); err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // skip null bars (holidays etc.)
		}
		c := *quote.Close[i]
		bar := model.PriceBar{
			Time:   sessionDate(ts, result.Meta.GMTOffset),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  c,
			Volume: at(quote.Volume, i),
		}
		if bar.Open == 0 {
			bar.Open = c
		}
		if bar.High == 0 {
			bar.High = max(bar.Open, c)
		}
		if bar.Low == 0 {
			bar.Low = min(bar.Open, c)
		}
		bars = append(bars, bar)
	}
	return dedupe(bars), nil
}

// sessionDate maps a bar timestamp to midnight UTC of its exchange-local date.
func sessionDate(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupe sorts bars and keeps the last bar of any repeated date.
func dedupe(bars []model.PriceBar) []model.PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

type yahooScreener struct {
	Finance struct {
		Result []struct {
			Quotes []struct {
				Symbol                     string  `json:"symbol"`
				ShortName                  string  `json:"shortName"`
				LongName                   string  `json:"longName"`
				RegularMarketPrice         float64 `json:"regularMarketPrice"`
				RegularMarketChange        float64 `json:"regularMarketChange"`
				RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
				RegularMarketVolume        float64 `json:"regularMarketVolume"`
				MarketCap                  float64 `json:"marketCap"`
			} `json:"quotes"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

// FetchMovers returns the top count rows of the predefined screener for cat.
func (f *YahooFetcher) FetchMovers(ctx context.Context, cat model.Category, count int) ([]model.Quote, error) {
	scrID, ok := YahooScreenID(cat)
	if !ok {
		return nil, fmt.Errorf("%w: category %v", ErrUnsupported, cat)
	}
	if count <= 0 {
		count = 25
	}
	q := url.Values{}
	q.Set("scrIds", scrID)
	q.Set("count", strconv.Itoa(count))
	q.Set("formatted", "false")
	u := fmt.Sprintf("%s/v1/finance/screener/predefined/saved?%s", f.BaseURL, q.Encode())

	var resp yahooScreener
	if err := f.Client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("yahoo screener %s: %w", scrID, err)
	}
	if resp.Finance.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", resp.Finance.Error.Description)
	}
	if len(resp.Finance.Result) == 0 {
		return nil, ErrNoData
	}

	rows := resp.Finance.Result[0].Quotes
	quotes := make([]model.Quote, 0, len(rows))
	for _, r := range rows {
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}
		quotes = append(quotes, model.Quote{
			Symbol:        r.Symbol,
			Name:          name,
			Price:         r.RegularMarketPrice,
			Change:        r.RegularMarketChange,
			ChangePercent: r.RegularMarketChangePercent,
			Volume:        r.RegularMarketVolume,
			MarketCap:     r.MarketCap,
		})
	}
	if len(quotes) > count {
		quotes = quotes[:count]
	}
	return quotes, nil
}
