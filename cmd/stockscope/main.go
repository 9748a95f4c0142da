// Command stockscope computes technical indicators for a symbol, trains a seeded
// random forest on next-bar direction and reports its held-out accuracy.
//
// Usage:
//
//	stockscope [predict] [flags] SYMBOL...
//	stockscope movers [flags] [most-active|gainers|losers]
//	stockscope serve [flags]
//	stockscope watch [flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"StockScope/internal/config"
	"StockScope/internal/features"
	"StockScope/internal/logging"
	"StockScope/internal/model"
	"StockScope/internal/notifier"
	"StockScope/internal/report"
	"StockScope/internal/scheduler"
	"StockScope/internal/server"
)

var commands = map[string]func(ctx context.Context, args []string) error{
	"predict": runPredict,
	"movers":  runMovers,
	"serve":   runServe,
	"watch":   runWatch,
}

func main() {
	args := os.Args[1:]
	name := "predict"
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands[name](ctx, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "stockscope %s: %v\n", name, err)
		os.Exit(1)
	}
}

// setup parses fs, loads the configuration and wires the shared components.
func setup(fs *flag.FlagSet, args []string) (*app, error) {
	cfgPath := fs.String("config", "", "config file path (default $CONFIG_PATH or "+config.DefaultPath+")")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return newApp(cfg, logger)
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	from := fs.String("from", "", "first date, YYYY-MM-DD (default: to minus model.lookback_days)")
	to := fs.String("to", "", "last date, YYYY-MM-DD (default: today)")
	interval := fs.String("interval", "", "bar interval: 1d or 1wk (default: model.interval)")
	short := fs.Int("short", 0, "short SMA window override")
	long := fs.Int("long", 0, "long SMA window override")
	rsi := fs.Int("rsi", 0, "RSI window override")
	trees := fs.Int("trees", 0, "ensemble size override")
	seed := fs.Int64("seed", 0, "random seed override (default: model.random_seed)")
	feats := fs.String("features", "", "comma-separated features: sma_short,sma_long,rsi,macd")
	tail := fs.Int("tail", report.DefaultTailRows, "indicator rows to print")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	refresh := fs.Bool("refresh", false, "drop cached data for the symbols first")

	a, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := fs.Args()
	if len(symbols) == 0 {
		return errors.New("usage: stockscope predict [flags] SYMBOL...")
	}

	r, err := resolveRange(a.cfg, *from, *to, *interval)
	if err != nil {
		return err
	}
	pc, err := a.cfg.Pipeline()
	if err != nil {
		return err
	}
	if *short > 0 {
		pc.Indicators.ShortWindow = *short
	}
	if *long > 0 {
		pc.Indicators.LongWindow = *long
	}
	if *rsi > 0 {
		pc.Indicators.RSIWindow = *rsi
	}
	if *trees > 0 {
		pc.Classifier.Trees = *trees
	}
	if isSet(fs, "seed") {
		pc.Classifier.Seed = *seed
	}
	if *feats != "" {
		if pc.Features, err = features.ParseList(strings.Split(*feats, ",")); err != nil {
			return err
		}
	}

	var failed int
	for _, symbol := range symbols {
		if *refresh {
			if _, err := a.collector.Invalidate(ctx, symbol); err != nil {
				a.logger.Warn().Err(err).Str("symbol", symbol).Msg("refresh cache")
			}
		}
		res, err := a.collector.Predict(ctx, symbol, r, pc)
		if err != nil {
			failed++
			fmt.Fprintln(os.Stderr, report.FormatError(strings.ToUpper(symbol), err))
			continue
		}
		if *asJSON {
			if err := writeJSON(os.Stdout, res); err != nil {
				return err
			}
			continue
		}
		fmt.Println(report.FormatResult(res, *tail))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(symbols))
	}
	return nil
}

// isSet reports whether the flag name was passed explicitly.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func resolveRange(cfg *config.Config, from, to, interval string) (model.Range, error) {
	r := cfg.Range()
	if interval != "" {
		if interval != string(model.IntervalDaily) && interval != string(model.IntervalWeekly) {
			return r, fmt.Errorf("interval must be 1d or 1wk, got %q", interval)
		}
		r.Interval = model.Interval(interval)
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return r, fmt.Errorf("parse -to: %w", err)
		}
		r.To = t
		r.From = t.AddDate(0, 0, -cfg.Model.LookbackDays)
	}
	if from != "" {
		f, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return r, fmt.Errorf("parse -from: %w", err)
		}
		r.From = f
	}
	if !r.From.Before(r.To) {
		return r, errors.New("from must be before to")
	}
	return r, nil
}

func runMovers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("movers", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the screen as JSON")
	a, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	cats := model.Categories
	if fs.NArg() > 0 {
		cat, err := model.ParseCategory(strings.Join(fs.Args(), " "))
		if err != nil {
			return err
		}
		cats = []model.Category{cat}
	}
	for _, cat := range cats {
		quotes, err := a.collector.Movers(ctx, cat)
		if err != nil {
			return fmt.Errorf("%s: %w", cat, err)
		}
		if *asJSON {
			if err := writeJSON(os.Stdout, map[string]any{"category": cat.String(), "quotes": quotes}); err != nil {
				return err
			}
			continue
		}
		fmt.Println(report.FormatMovers(cat, quotes))
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address override")
	a, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	pc, err := a.cfg.Pipeline()
	if err != nil {
		return err
	}
	listen := a.cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	h := server.NewHandler(a.collector, pc, a.cfg.Model.LookbackDays, a.logger)
	srv := server.NewServer(h, a.logger,
		server.WithAddr(listen),
		server.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		server.WithMetrics(a.metrics.Handler()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping...")
		return srv.Stop(context.Background())
	}
}

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	now := fs.Bool("now", os.Getenv("RUN_ON_START") == "true", "run the watchlist report once at start")
	a, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}
	pc, err := a.cfg.Pipeline()
	if err != nil {
		return err
	}

	tn, err := notifier.NewTelegramNotifier(notifier.Options{
		BotToken:     a.cfg.Telegram.BotToken,
		ChatID:       a.cfg.Telegram.ChatID,
		AllowedChats: a.cfg.Telegram.AllowedChats,
		ProxyURL:     a.cfg.Proxy,
		MaxRetries:   3,
		PollTimeout:  30,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(ctx, a.collector, tn, scheduler.Options{
		Pipeline:       pc,
		Watchlist:      a.cfg.Schedule.Watchlist,
		MoversCategory: a.cfg.MoversCategory(),
		LookbackDays:   a.cfg.Model.LookbackDays,
		Interval:       model.Interval(a.cfg.Model.Interval),
	}, a.logger)
	if err := sched.RegisterAll(a.cfg.Schedule.WatchCron, a.cfg.Schedule.MoversCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)

	if *now {
		log.Info().Msg("running watchlist report at start")
		go sched.RunWatchNow()
	}

	log.Info().Strs("watchlist", a.cfg.Schedule.Watchlist).Msg("StockScope is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
