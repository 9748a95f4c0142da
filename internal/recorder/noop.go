package recorder

// NoopRecorder is used when metrics are disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunEvent)              {}
func (n *NoopRecorder) RecordFetch(_ *FetchEvent)          {}
func (n *NoopRecorder) RecordCacheLookup(_ string, _ bool) {}
func (n *NoopRecorder) RecordInvalidation(_ string, _ int) {}
func (n *NoopRecorder) Close() error                       { return nil }
