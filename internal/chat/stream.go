package chat

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/sse"
)

// StreamError is a failure the backend reported inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("chat: backend error: %s", e.Message)
}

// Cancelled reports whether err ends an answer without an error turn.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Fail appends the error turn for an answer that ended with err and
// reports whether it added one. Cancellation adds nothing, a *StreamError
// shows the backend message and anything else shows FailureMessage.
func (c *Conversation) Fail(err error) bool {
	if err == nil || Cancelled(err) {
		return false
	}
	var serr *StreamError
	if errors.As(err, &serr) {
		c.AddError(ErrorText(serr.Message))
		return true
	}
	c.AddError(FailureMessage)
	return true
}

// NewEventReader reads the answer stream in body, logging skipped lines
// to the conversation.
func NewEventReader(body io.Reader, log otel.Conv) *sse.Reader {
	return sse.NewReader(body, sse.OnSkip(func(line string, err error) {
		logging.Debug("skipping stream line", "conv", log.ID(), "line", line, "err", err)
		log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStreamSkip, Err: err.Error()})
	}))
}

// LogEvent records one applied stream event. Tokens are only traced.
func LogEvent(log otel.Conv, ev sse.Event) {
	switch e := ev.(type) {
	case sse.Token:
		if otel.TraceEnabled() {
			log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindStreamToken, Count: len(e.Token)})
		}
	case sse.Citations:
		log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStreamCitations, Count: len(e.Citations)})
	}
}
