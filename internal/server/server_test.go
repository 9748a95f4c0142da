package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"StockScope/internal/cache"
	"StockScope/internal/collector"
	"StockScope/internal/pipeline"
	"StockScope/internal/recorder"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorItem struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T, fetcher collector.Fetcher) *Server {
	t.Helper()
	rec := recorder.NewPrometheusRecorder()
	sc := cache.NewSeriesCache(cache.NewMemoryStore(), fetcher.Name(), time.Hour, rec)
	t.Cleanup(func() { sc.Close() })

	col := collector.NewCollector(fetcher, sc, rec, zerolog.Nop())
	h := NewHandler(col, pipeline.DefaultConfig(), 365, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC) }
	return NewServer(h, zerolog.Nop(), WithMetrics(rec.Handler()))
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func firstError(t *testing.T, env envelope) errorItem {
	t.Helper()
	var items []errorItem
	if err := json.Unmarshal(env.Data, &items); err != nil || len(items) == 0 {
		t.Fatalf("expected error list, got %s (%v)", env.Data, err)
	}
	return items[0]
}

func TestPredict_OK(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	rec, env := do(t, s, http.MethodGet, "/api/predict?symbol=aapl&tail=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body PredictResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Symbol != "AAPL" || body.Source != "mock" {
		t.Errorf("unexpected header fields %+v", body)
	}
	if body.From != "2023-06-29" || body.To != "2024-06-28" {
		t.Errorf("unexpected range %s..%s", body.From, body.To)
	}
	if body.Windows != (Windows{Short: 20, Long: 50, RSI: 14}) {
		t.Errorf("unexpected windows %+v", body.Windows)
	}
	if len(body.Indicators) != 5 {
		t.Errorf("expected 5 indicator rows, got %d", len(body.Indicators))
	}
	if body.Evaluation == nil || body.Forecast == nil || body.Outlook == nil {
		t.Errorf("missing evaluation, forecast or outlook: %s", env.Data)
	}
}

func TestPredict_Text(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	rec, _ := do(t, s, http.MethodGet, "/api/predict?symbol=MSFT&format=text")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "StockScope | MSFT") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher collector.Fetcher
		target  string
		status  int
		code    string
	}{
		{"missing symbol", &collector.MockFetcher{}, "/api/predict", 400, "ERR_REQUIRED"},
		{"bad interval", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&interval=1h", 400, "ERR_ONEOF"},
		{"bad date", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&from=06/01/2024", 400, "ERR_DATETIME"},
		{"bad number", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&days=abc", 400, "ERR_BIND"},
		{"inverted range", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&from=2024-06-01&to=2024-05-01", 400, "ERR_BAD_RANGE"},
		{"short history", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&days=10", 422, "ERR_INSUFFICIENT_DATA"},
		{"short window one", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&short_window=1", 400, "ERR_GTE"},
		{"rsi window one", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&rsi_window=1", 400, "ERR_GTE"},
		{"long below short", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&short_window=60", 400, "ERR_BAD_PARAMETERS"},
		{"unknown feature", &collector.MockFetcher{}, "/api/predict?symbol=AAPL&features=volume", 400, "ERR_BAD_PARAMETERS"},
		{"source failure", &collector.MockFetcher{Err: errors.New("boom")}, "/api/predict?symbol=AAPL", 502, "ERR_UPSTREAM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.fetcher)
			rec, env := do(t, s, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := firstError(t, env).Code; got != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, got)
			}
		})
	}
}

func TestMovers(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})

	rec, env := do(t, s, http.MethodGet, "/api/movers/losers")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body MoversResponse
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Category != "Top Losers" || len(body.Quotes) != 5 || body.Quotes[0].Symbol != "TSLA" {
		t.Errorf("unexpected movers %+v", body)
	}

	rec, env = do(t, s, http.MethodGet, "/api/movers/crypto")
	if rec.Code != http.StatusBadRequest || firstError(t, env).Code != "ERR_UNKNOWN_CATEGORY" {
		t.Errorf("expected unknown category, got %d %s", rec.Code, env.Data)
	}
}

func TestCacheInvalidation(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	do(t, s, http.MethodGet, "/api/predict?symbol=AAPL")
	do(t, s, http.MethodGet, "/api/movers/gainers")

	_, env := do(t, s, http.MethodDelete, "/api/cache/aapl")
	var inv InvalidateResponse
	if err := json.Unmarshal(env.Data, &inv); err != nil {
		t.Fatal(err)
	}
	if inv.Symbol != "AAPL" || inv.Removed != 1 {
		t.Errorf("unexpected symbol invalidation %+v", inv)
	}

	_, env = do(t, s, http.MethodDelete, "/api/cache")
	inv = InvalidateResponse{}
	if err := json.Unmarshal(env.Data, &inv); err != nil {
		t.Fatal(err)
	}
	if inv.Removed != 1 {
		t.Errorf("expected the movers entry to remain for the full flush, got %+v", inv)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	rec, env := do(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"status":"ok"`) {
		t.Errorf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	do(t, s, http.MethodGet, "/api/predict?symbol=AAPL")
	rec, _ = do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, want := range []string{"stockscope_pipeline_runs_total", "stockscope_cache_lookups_total"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{collector.ErrUnsupported, http.StatusNotImplemented},
		{errors.New("other"), http.StatusInternalServerError},
		{NewAppError("ERR_X", "x", http.StatusTeapot), http.StatusTeapot},
	}
	for _, tt := range tests {
		if got := classify(tt.err).Status; got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestRecover(t *testing.T) {
	s := newTestServer(t, &collector.MockFetcher{})
	s.Echo().GET("/panic", func(c echo.Context) error { panic("boom") })
	rec, _ := do(t, s, http.MethodGet, "/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
