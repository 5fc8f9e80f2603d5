package chat

import (
	"github.com/abelbrown/boardview/internal/sse"
)

// OutcomeKind is the state of a stream after an event.
type OutcomeKind int

const (
	// OutcomeContinue means keep reading.
	OutcomeContinue OutcomeKind = iota
	// OutcomeComplete means the backend finished the answer.
	OutcomeComplete
	// OutcomeFailed means the backend reported an error mid-stream.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeComplete:
		return "complete"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the result of applying one event.
type Outcome struct {
	Kind    OutcomeKind
	Message string // backend message, OutcomeFailed only
}

// Terminal reports whether reading must stop.
func (o Outcome) Terminal() bool {
	return o.Kind != OutcomeContinue
}

// Err is the *StreamError of a failed outcome, nil otherwise.
func (o Outcome) Err() error {
	if o.Kind != OutcomeFailed {
		return nil
	}
	return &StreamError{Message: o.Message}
}

// Assembler folds stream events into one Reply. After a terminal event it
// keeps returning that outcome and changes nothing.
type Assembler struct {
	reply  *Reply
	final  *Outcome
	tokens int
}

// NewAssembler targets r.
func NewAssembler(r *Reply) *Assembler {
	return &Assembler{reply: r}
}

// Apply folds ev into the reply. Each token or citations event is exactly
// one update of the turn.
func (a *Assembler) Apply(ev sse.Event) Outcome {
	if a.final != nil {
		return *a.final
	}
	switch e := ev.(type) {
	case sse.Token:
		a.reply.AppendToken(e.Token)
		a.tokens++
	case sse.Citations:
		a.reply.SetCitations(e.Citations)
	case sse.Complete:
		a.finish(Outcome{Kind: OutcomeComplete})
	case sse.Error:
		a.finish(Outcome{Kind: OutcomeFailed, Message: e.Message})
	}
	if a.final != nil {
		return *a.final
	}
	return Outcome{Kind: OutcomeContinue}
}

// Tokens is the number of token events applied.
func (a *Assembler) Tokens() int {
	return a.tokens
}

func (a *Assembler) finish(o Outcome) {
	a.final = &o
	a.reply.Done()
}

// ErrorText is the content of the visible turn for a backend error message.
func ErrorText(msg string) string {
	if msg == "" {
		return FailureMessage
	}
	return "エラー: " + msg
}
