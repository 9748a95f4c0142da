package report

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"text/tabwriter"
	"time"

	"StockScope/internal/calculator"
	"StockScope/internal/collector"
	"StockScope/internal/features"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

// DefaultTailRows is how many indicator rows a report shows.
const DefaultTailRows = 10

// FormatResult renders a pipeline result as plain text: the indicator tail,
// the period range, the held-out evaluation and the next-bar forecast.
func FormatResult(res *pipeline.Result, tailRows int) string {
	var b strings.Builder
	frame := res.Frame

	first, last := frame.Rows[0].Time, frame.Rows[frame.Len()-1].Time
	fmt.Fprintf(&b, "StockScope | %s | %s → %s (%d bars)\n\n",
		res.Symbol, first.Format(time.DateOnly), last.Format(time.DateOnly), frame.Len())

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date\tClose\tSMA%d\tSMA%d\tRSI%d\tMACD\t\n", frame.ShortWindow, frame.LongWindow, frame.RSIWindow)
	for _, row := range frame.Tail(tailRows) {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\t%s\t\n",
			row.Time.Format(time.DateOnly), row.Close,
			short(row.SMAShort, 2), short(row.SMALong, 2), short(row.RSI, 1), short(row.MACD, 3))
	}
	tw.Flush()

	p := res.Period
	fmt.Fprintf(&b, "\nPeriod high/low: %.2f / %.2f (last close at %.0f%% of range)\n", p.High, p.Low, p.Position*100)

	names := make([]string, len(res.Features))
	for i, f := range res.Features {
		names[i] = string(f)
	}
	ev := res.Evaluation
	fmt.Fprintf(&b, "Model: %d trees, seed %d, features %s\n", ev.Trees, ev.Seed, strings.Join(names, ","))
	fmt.Fprintf(&b, "Accuracy: %.2f%% on %d held-out samples (train %d; test %d up / %d down)\n",
		ev.Accuracy*100, ev.TestSize, ev.TrainSize, ev.TestUp, ev.TestDown)
	for _, w := range ev.Warnings {
		fmt.Fprintf(&b, "⚠️ %s: %s\n", w.Kind, w.Message)
	}

	if o := res.Outlook; o != nil {
		fmt.Fprintf(&b, "Outlook: %s (score %+.3f)\n", o.Stance.Label, o.TotalScore)
		for _, f := range o.Factors {
			fmt.Fprintf(&b, "  %-18s %+.1f x %.2f  %s\n", f.Name, f.RawScore, f.Weight, f.Commentary)
		}
		if o.Warning != "" {
			fmt.Fprintf(&b, "⚠️ %s\n", o.Warning)
		}
	}

	if f := res.Forecast; f != nil {
		fmt.Fprintf(&b, "Next bar after %s: %s (%.0f%% of trees up, last close %.2f)\n",
			f.AsOf.Format(time.DateOnly), f.Direction, f.Probability*100, f.LastClose)
	}
	return b.String()
}

func short(v model.Value, prec int) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v.V)
}

// FormatMovers renders one screener table.
func FormatMovers(cat model.Category, quotes []model.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n\n", cat, len(quotes))
	if len(quotes) == 0 {
		b.WriteString("no rows\n")
		return b.String()
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Symbol\tName\tPrice\tChange\tChange %\tVolume\t")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%+.2f\t%+.2f%%\t%s\t\n",
			q.Symbol, truncate(q.Name, 24), q.Price, q.Change, q.ChangePercent, humanize(q.Volume))
	}
	tw.Flush()
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func humanize(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%.0f", v)
}

// FormatError turns a pipeline or fetch failure into a message for the user.
func FormatError(symbol string, err error) string {
	var ide *calculator.InsufficientDataError
	var fe *collector.FetchError
	switch {
	case errors.As(err, &ide):
		return fmt.Sprintf("%s: not enough history for the indicators (have %d bars, need %d). Widen the date range.", symbol, ide.Have, ide.Need)
	case errors.Is(err, features.ErrEmptyDataset):
		return fmt.Sprintf("%s: too few usable rows after indicator warm-up; no prediction is possible.", symbol)
	case errors.As(err, &fe):
		return fmt.Sprintf("%s: data source %s failed: %v", symbol, fe.Source, fe.Err)
	}
	return fmt.Sprintf("%s: %v", symbol, err)
}

// HTML wraps plain report text for Telegram's HTML parse mode.
func HTML(title, text string) string {
	return fmt.Sprintf("<b>%s</b>\n<pre>%s</pre>", html.EscapeString(title), html.EscapeString(text))
}
