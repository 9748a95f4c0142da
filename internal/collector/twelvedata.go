package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockScope/internal/httpx"
	"StockScope/internal/model"
)

// TwelveDataFetcher implements Fetcher using the Twelve Data REST API.
// It serves stock and forex series; it has no movers screens.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	logger  zerolog.Logger
}

// NewTwelveDataFetcher creates a new fetcher.
func NewTwelveDataFetcher(client *httpx.Client, apiKey string, logger zerolog.Logger) *TwelveDataFetcher {
	return &TwelveDataFetcher{
		BaseURL: "https://api.twelvedata.com",
		APIKey:  apiKey,
		Client:  client,
		logger:  logger.With().Str("component", "twelvedata").Logger(),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// tdSeries is the JSON shape of /time_series. Prices arrive as strings.
type tdSeries struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

func tdInterval(i model.Interval) (string, error) {
	switch i {
	case model.IntervalDaily, "":
		return "1day", nil
	case model.IntervalWeekly:
		return "1week", nil
	}
	return "", fmt.Errorf("%w: interval %q", ErrUnsupported, i)
}

// tdSymbol turns EURUSD into the EUR/USD form the API expects for forex.
func tdSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSuffix(symbol, "=X"))
	if len(s) == 6 && isForexPair(s) {
		return s[:3] + "/" + s[3:]
	}
	return s
}

func (f *TwelveDataFetcher) FetchBars(ctx context.Context, symbol string, r model.Range) ([]model.PriceBar, error) {
	interval, err := tdInterval(r.Interval)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("symbol", tdSymbol(symbol))
	q.Set("interval", interval)
	q.Set("start_date", r.From.Format(time.DateOnly))
	q.Set("end_date", r.To.Format(time.DateOnly))
	q.Set("order", "ASC")
	q.Set("outputsize", "5000")
	q.Set("apikey", f.APIKey)
	endpoint := fmt.Sprintf("%s/time_series?%s", f.BaseURL, q.Encode())

	f.logger.Debug().Str("symbol", symbol).Str("interval", interval).Msg("fetching time series")

	var data tdSeries
	if err := f.Client.GetJSON(ctx, endpoint, nil, &data); err != nil {
		return nil, fmt.Errorf("twelvedata time_series: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("twelvedata api error %d: %s", data.Code, data.Message)
	}
	if len(data.Values) == 0 {
		return nil, ErrNoData
	}

	bars := make([]model.PriceBar, 0, len(data.Values))
	for _, v := range data.Values {
		t, err := time.Parse(time.DateOnly, v.Datetime[:min(len(v.Datetime), len(time.DateOnly))])
		if err != nil {
			return nil, fmt.Errorf("twelvedata datetime %q: %w", v.Datetime, err)
		}
		c, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata close %q: %w", v.Close, err)
		}
		bars = append(bars, model.PriceBar{
			Time:   t,
			Open:   parseOr(v.Open, c),
			High:   parseOr(v.High, c),
			Low:    parseOr(v.Low, c),
			Close:  c,
			Volume: parseOr(v.Volume, 0),
		})
	}
	// Ensure chronological order
	return dedupe(bars), nil
}

func parseOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (f *TwelveDataFetcher) FetchMovers(_ context.Context, cat model.Category, _ int) ([]model.Quote, error) {
	return nil, fmt.Errorf("%w: %s screen on %s", ErrUnsupported, cat, f.Name())
}
