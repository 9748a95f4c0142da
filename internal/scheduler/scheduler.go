package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockScope/internal/collector"
	"StockScope/internal/model"
	"StockScope/internal/notifier"
	"StockScope/internal/pipeline"
	"StockScope/internal/report"
)

// Options configures the scheduled jobs and chat commands.
type Options struct {
	Pipeline       pipeline.Config
	Watchlist      []string
	MoversCategory model.Category
	LookbackDays   int
	Interval       model.Interval
	TailRows       int
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Sender
	Ctx       context.Context

	opts   Options
	now    func() time.Time
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sender notifier.Sender, opts Options, logger zerolog.Logger) *Scheduler {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	if opts.Interval == "" {
		opts.Interval = model.IntervalDaily
	}
	if opts.TailRows <= 0 {
		opts.TailRows = report.DefaultTailRows
	}
	if opts.MoversCategory == 0 {
		opts.MoversCategory = model.CategoryTopGainers
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  sender,
		Ctx:       ctx,
		opts:      opts,
		now:       time.Now,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the watchlist and movers jobs. An empty expression skips its job.
func (s *Scheduler) RegisterAll(watchCron, moversCron string) error {
	if watchCron != "" {
		if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
			return fmt.Errorf("register watch task: %w", err)
		}
	}
	if moversCron != "" {
		if _, err := s.Cron.AddFunc(moversCron, s.moversTask); err != nil {
			return fmt.Errorf("register movers task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunWatchNow executes the watchlist task immediately.
func (s *Scheduler) RunWatchNow() {
	s.watchTask()
}

func (s *Scheduler) rangeFor(days int) model.Range {
	to := s.now().UTC().Truncate(24 * time.Hour)
	return model.Range{From: to.AddDate(0, 0, -days), To: to, Interval: s.opts.Interval}
}

// watchTask re-runs the prediction for each watchlist symbol on fresh data.
func (s *Scheduler) watchTask() {
	if len(s.opts.Watchlist) == 0 {
		s.logger.Debug().Msg("watchlist empty, nothing to do")
		return
	}
	s.logger.Info().Strs("symbols", s.opts.Watchlist).Msg("running watch task")
	r := s.rangeFor(s.opts.LookbackDays)
	for _, symbol := range s.opts.Watchlist {
		if err := s.Ctx.Err(); err != nil {
			return
		}
		if _, err := s.Collector.Invalidate(s.Ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("invalidate before watch run")
		}
		s.trySend(s.predict(s.Ctx, symbol, r))
	}
}

func (s *Scheduler) moversTask() {
	s.logger.Info().Str("category", s.opts.MoversCategory.Slug()).Msg("running movers task")
	s.trySend(s.movers(s.Ctx, s.opts.MoversCategory))
}

func (s *Scheduler) predict(ctx context.Context, symbol string, r model.Range) string {
	symbol = strings.ToUpper(symbol)
	res, err := s.Collector.Predict(ctx, symbol, r, s.opts.Pipeline)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("prediction failed")
		return "❌ " + html.EscapeString(report.FormatError(symbol, err))
	}
	return report.HTML(symbol+" daily report", report.FormatResult(res, s.opts.TailRows))
}

func (s *Scheduler) movers(ctx context.Context, cat model.Category) string {
	quotes, err := s.Collector.Movers(ctx, cat)
	if err != nil {
		s.logger.Error().Err(err).Str("category", cat.Slug()).Msg("movers fetch failed")
		if errors.Is(err, collector.ErrUnsupported) {
			return fmt.Sprintf("❌ %s screens are not available from %s", cat, s.Collector.Source())
		}
		return "❌ " + html.EscapeString(fmt.Sprintf("%s: %v", cat, err))
	}
	return report.HTML(cat.String(), report.FormatMovers(cat, quotes))
}

const helpText = `Available commands:
/predict SYMBOL [days] - indicators, accuracy and next-bar forecast
/movers [most-active|gainers|losers] - market screen
/refresh SYMBOL - drop cached data for a symbol
/watchlist - symbols covered by the scheduled report
/help - this message`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats address bots as /cmd@botname.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/predict":
		if len(args) == 0 {
			return "usage: /predict SYMBOL [days]"
		}
		days := s.opts.LookbackDays
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return "days must be a positive integer"
			}
			days = n
		}
		return s.predict(ctx, args[0], s.rangeFor(days))
	case "/movers":
		cat := s.opts.MoversCategory
		if len(args) > 0 {
			parsed, err := model.ParseCategory(strings.Join(args, " "))
			if err != nil {
				return html.EscapeString(fmt.Sprintf("%v; choose most-active, gainers or losers", err))
			}
			cat = parsed
		}
		return s.movers(ctx, cat)
	case "/refresh":
		if len(args) == 0 {
			return "usage: /refresh SYMBOL"
		}
		n, err := s.Collector.Invalidate(ctx, args[0])
		if err != nil {
			return "❌ " + html.EscapeString(fmt.Sprintf("refresh %s: %v", args[0], err))
		}
		return html.EscapeString(fmt.Sprintf("dropped %d cached entries for %s", n, strings.ToUpper(args[0])))
	case "/watchlist":
		if len(s.opts.Watchlist) == 0 {
			return "watchlist is empty"
		}
		return "watchlist: " + html.EscapeString(strings.Join(s.opts.Watchlist, ", "))
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
