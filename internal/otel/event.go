// Package otel records structured boardview events.
//
// Events are typed structs written as JSONL by an async Logger. A RingBuffer
// keeps the most recent events in memory for the TUI debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	// Chat
	KindAskStart    EventKind = "ask.start"
	KindAskComplete EventKind = "ask.complete"
	KindAskError    EventKind = "ask.error"
	KindAskCancel   EventKind = "ask.cancel"

	// Stream assembly
	KindStreamToken     EventKind = "stream.token" // trace only
	KindStreamCitations EventKind = "stream.citations"
	KindStreamSkip      EventKind = "stream.skip"
	KindStreamEOF       EventKind = "stream.eof"

	// Search paging
	KindSearchStart    EventKind = "search.start"
	KindSearchPage     EventKind = "search.page"
	KindSearchCount    EventKind = "search.count"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"

	// Ranking
	KindRankingStart    EventKind = "ranking.start"
	KindRankingComplete EventKind = "ranking.complete"
	KindRankingError    EventKind = "ranking.error"

	// Index status poll
	KindStatusPoll  EventKind = "status.poll"
	KindStatusError EventKind = "status.error"

	// UI
	KindKeyPress  EventKind = "ui.key"
	KindTabSwitch EventKind = "ui.tab"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is one observability record. Only Kind and Time are always set.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "chat", "search", "ranking", "status", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	ConvID    string         `json:"conv,omitempty"` // chat conversation id
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Cursor    int            `json:"cursor,omitempty"`
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
