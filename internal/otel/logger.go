package otel

// Concurrency: drain is the only goroutine that reads ch and writes w.
// mu guards the buf pointer only; the ring has its own lock and is pushed
// after mu is released.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the async write queue. A full queue drops events.
const queueSize = 4096

type logEntry struct {
	data []byte
	ev   Event
}

// Logger writes Events as JSONL without blocking the caller.
// Safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	buf       *RingBuffer
	w         io.Writer
	sessionID string
	ch        chan logEntry
	done      chan struct{}
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes and stops it.
func NewLogger(w io.Writer) *Logger {
	var b [8]byte
	_, _ = rand.Read(b[:])

	l := &Logger{
		w:         w,
		sessionID: hex.EncodeToString(b[:]),
		ch:        make(chan logEntry, queueSize),
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger returns a Logger that discards lines. Close it like any other.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for entry := range l.ch {
		if _, err := l.w.Write(entry.data); err != nil {
			l.dropped.Add(1)
		}
		l.mu.Lock()
		buf := l.buf
		l.mu.Unlock()
		if buf != nil {
			buf.Push(entry.ev)
		}
	}
}

// SessionID is the random id stamped on every event of this run.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Emit queues e. Time defaults to now. Never blocks: when the queue is full
// or the logger is closed the event is counted as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	// A send racing Close can hit a closed channel.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	data, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	data = append(data, '\n')

	select {
	case l.ch <- logEntry{data: data, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event. A nil err is logged with an empty message.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var s string
	if err != nil {
		s = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: s})
}

// Timed returns a func that emits e with Dur set to the time since Timed
// was called. Fields set on e (Count, Err, ...) can be adjusted by the caller
// through the returned func's argument.
func (l *Logger) Timed(e Event) func(func(*Event)) {
	start := time.Now()
	return func(edit func(*Event)) {
		ev := e
		if edit != nil {
			edit(&ev)
		}
		ev.Dur = time.Since(start)
		l.Emit(ev)
	}
}

// SetRingBuffer mirrors every written event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.mu.Lock()
	l.buf = ring
	l.mu.Unlock()
}

// Dropped is the number of events lost so far.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains queued events and stops the writer. Later Emits are dropped.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "boardview: %d events dropped in session %s\n", n, l.sessionID)
		}
	})
}

// Conv emits the chat events of one conversation: Comp and ConvID are
// stamped on every event. A Conv of a nil Logger discards everything.
type Conv struct {
	l  *Logger
	id string
}

// Conv returns the emitter for conversation id.
func (l *Logger) Conv(id string) Conv {
	return Conv{l: l, id: id}
}

// ID is the conversation id.
func (c Conv) ID() string {
	return c.id
}

func (c Conv) stamp(e Event) Event {
	if e.Comp == "" {
		e.Comp = "chat"
	}
	e.ConvID = c.id
	return e
}

// Emit queues e for the conversation.
func (c Conv) Emit(e Event) {
	c.l.Emit(c.stamp(e))
}

// Timed is Logger.Timed for the conversation.
func (c Conv) Timed(e Event) func(func(*Event)) {
	return c.l.Timed(c.stamp(e))
}
