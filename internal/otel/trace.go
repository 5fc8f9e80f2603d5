package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled gates per-token stream events, which are too chatty for
// normal runs. Read from BOARDVIEW_TRACE once at init.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("BOARDVIEW_TRACE") != "")
}

// TraceEnabled reports whether BOARDVIEW_TRACE was set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled is for tests.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
