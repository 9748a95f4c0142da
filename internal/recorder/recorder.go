package recorder

import "time"

// RunEvent describes one pipeline run.
type RunEvent struct {
	Symbol     string
	Source     string
	Bars       int
	Samples    int
	Accuracy   float64
	Degenerate bool
	Duration   time.Duration
	Err        error
}

// FetchEvent describes one call to a data source.
type FetchEvent struct {
	Source   string
	Kind     string // "bars" or "movers"
	Duration time.Duration
	Err      error
}

// Recorder observes runs, fetches and cache lookups.
type Recorder interface {
	RecordRun(evt *RunEvent)
	RecordFetch(evt *FetchEvent)
	RecordCacheLookup(kind string, hit bool)
	RecordInvalidation(scope string, removed int)
	Close() error
}
