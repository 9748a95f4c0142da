package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"StockScope/internal/cache"
	"StockScope/internal/collector"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

type countingFetcher struct {
	collector.MockFetcher
	bars     int
	noMovers bool
}

func (c *countingFetcher) FetchBars(ctx context.Context, symbol string, r model.Range) ([]model.PriceBar, error) {
	c.bars++
	return c.MockFetcher.FetchBars(ctx, symbol, r)
}

func (c *countingFetcher) FetchMovers(ctx context.Context, cat model.Category, n int) ([]model.Quote, error) {
	if c.noMovers {
		return nil, collector.ErrUnsupported
	}
	return c.MockFetcher.FetchMovers(ctx, cat, n)
}

type failingStore struct {
	*cache.MemoryStore
}

func (f failingStore) DeleteByPrefix(context.Context, string) (int, error) {
	return 0, errors.New("store <down>")
}

func newTestScheduler(t *testing.T, f *countingFetcher, watchlist ...string) (*Scheduler, *recordingSender) {
	t.Helper()
	store := cache.NewMemoryStore()
	sc := cache.NewSeriesCache(store, f.Name(), time.Hour, nil)
	t.Cleanup(func() { sc.Close() })

	col := collector.NewCollector(f, sc, nil, zerolog.Nop())
	sender := &recordingSender{}
	s := NewScheduler(context.Background(), col, sender, Options{
		Pipeline:  pipeline.DefaultConfig(),
		Watchlist: watchlist,
	}, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC) }
	return s, sender
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, &countingFetcher{}, "AAPL", "MSFT")
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/predict aapl", "<b>AAPL daily report</b>"},
		{"/predict aapl", "Accuracy:"},
		{"/predict AAPL 10", "not enough history"},
		{"/predict AAPL x", "days must be a positive integer"},
		{"/predict", "usage: /predict"},
		{"/movers losers", "Top Losers"},
		{"/movers most active", "Most Active"},
		{"/movers", "Top Gainers"},
		{"/movers crypto", "unknown category"},
		{"/refresh", "usage: /refresh"},
		{"/watchlist", "watchlist: AAPL, MSFT"},
		{"/help@scope_bot", "Available commands"},
		{"hello", "Available commands"},
		{"   ", "Available commands"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got := s.HandleCommand(ctx, tt.command)
			if !strings.Contains(got, tt.want) {
				t.Errorf("HandleCommand(%q) = %q, want it to contain %q", tt.command, got, tt.want)
			}
		})
	}
}

func TestHandleCommand_EscapesUserInput(t *testing.T) {
	s, _ := newTestScheduler(t, &countingFetcher{})
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/movers <x>", "unknown category &#34;&lt;x&gt;&#34;"},
		{"/refresh <b>", "dropped 0 cached entries for &lt;B&gt;"},
	}
	for _, tt := range tests {
		got := s.HandleCommand(ctx, tt.command)
		if !strings.Contains(got, tt.want) || strings.ContainsAny(got, "<>") {
			t.Errorf("HandleCommand(%q) = %q, want escaped text containing %q", tt.command, got, tt.want)
		}
	}
}

func TestHandleCommand_RefreshFailureIsEscaped(t *testing.T) {
	f := &countingFetcher{}
	sc := cache.NewSeriesCache(failingStore{cache.NewMemoryStore()}, f.Name(), time.Hour, nil)
	t.Cleanup(func() { sc.Close() })
	col := collector.NewCollector(f, sc, nil, zerolog.Nop())
	s := NewScheduler(context.Background(), col, &recordingSender{}, Options{Pipeline: pipeline.DefaultConfig()}, zerolog.Nop())

	got := s.HandleCommand(context.Background(), "/refresh <i>")
	if !strings.HasPrefix(got, "❌ refresh &lt;i&gt;") || !strings.Contains(got, "store &lt;down&gt;") {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestHandleCommand_RefreshDropsCache(t *testing.T) {
	f := &countingFetcher{}
	s, _ := newTestScheduler(t, f)
	ctx := context.Background()

	s.HandleCommand(ctx, "/predict AAPL")
	s.HandleCommand(ctx, "/predict AAPL")
	if f.bars != 1 {
		t.Fatalf("expected one fetch with caching, got %d", f.bars)
	}
	if got := s.HandleCommand(ctx, "/refresh aapl"); got != "dropped 1 cached entries for AAPL" {
		t.Errorf("unexpected reply %q", got)
	}
	s.HandleCommand(ctx, "/predict AAPL")
	if f.bars != 2 {
		t.Errorf("expected a refetch after refresh, got %d fetches", f.bars)
	}
}

func TestWatchTask_InvalidatesAndSendsPerSymbol(t *testing.T) {
	f := &countingFetcher{}
	s, sender := newTestScheduler(t, f, "AAPL", "MSFT")

	s.HandleCommand(context.Background(), "/predict AAPL")
	s.RunWatchNow()

	if f.bars != 3 {
		t.Errorf("expected the watch run to bypass the cache, got %d fetches", f.bars)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "AAPL daily report") || !strings.Contains(sender.sent[1], "MSFT daily report") {
		t.Errorf("unexpected messages %q", sender.sent)
	}
}

func TestWatchTask_EmptyWatchlist(t *testing.T) {
	s, sender := newTestScheduler(t, &countingFetcher{})
	s.RunWatchNow()
	if len(sender.sent) != 0 {
		t.Errorf("expected no messages, got %d", len(sender.sent))
	}
}

func TestMoversTask(t *testing.T) {
	s, sender := newTestScheduler(t, &countingFetcher{})
	s.moversTask()
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "NVDA") {
		t.Fatalf("unexpected messages %q", sender.sent)
	}

	s, sender = newTestScheduler(t, &countingFetcher{noMovers: true})
	s.moversTask()
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "not available from mock") {
		t.Errorf("unexpected messages %q", sender.sent)
	}
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, &countingFetcher{})
	if err := s.RegisterAll("0 30 22 * * 1-5", "0 0 23 * * 1-5"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}

	s, _ = newTestScheduler(t, &countingFetcher{})
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected error for bad expression")
	}
	if err := s.RegisterAll("", ""); err != nil {
		t.Errorf("empty expressions should be skipped: %v", err)
	}
}
