package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
)

// Asker opens an answer stream. *api.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question, conversationID string) (io.ReadCloser, error)
}

// Session runs questions against the backend and owns the conversation.
// Ask calls are serialized; starting one cancels the stream in flight.
type Session struct {
	client Asker
	log    *otel.Logger

	busy chan struct{} // held for the whole of Ask
	conv *Conversation
	id   string

	cmu    sync.Mutex
	cancel context.CancelFunc
	seq    uint64 // bumped by every Ask that registers a cancel
}

// NewSession starts a fresh conversation. log may be nil.
func NewSession(client Asker, log *otel.Logger) *Session {
	return &Session{
		client: client,
		log:    log,
		busy:   make(chan struct{}, 1),
		conv:   NewConversation(),
		id:     uuid.NewString(),
	}
}

// ID is the conversation id sent with every question.
func (s *Session) ID() string {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	return s.id
}

// Conversation returns the live conversation.
func (s *Session) Conversation() *Conversation {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	return s.conv
}

// Reset cancels any stream and starts a new, empty conversation.
func (s *Session) Reset() {
	s.Cancel()
	s.busy <- struct{}{}
	defer func() { <-s.busy }()
	s.cmu.Lock()
	s.conv = NewConversation()
	s.id = uuid.NewString()
	s.cmu.Unlock()
}

// Cancel aborts the stream in flight, if any.
func (s *Session) Cancel() {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Ask appends the question, streams the answer into the conversation and
// calls onUpdate with the assistant turn after every change. onUpdate may be nil.
//
// A request failure or a broken stream appends a FailureMessage turn and
// returns the error. A backend error event appends a turn with the backend
// message and returns *StreamError. Cancellation returns ctx.Err() without
// an error turn.
func (s *Session) Ask(ctx context.Context, question string, onUpdate func(model.Turn)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	seq := s.register(cancel)
	defer s.release(seq)

	// A later Ask or Cancel may supersede this one while the previous
	// stream unwinds.
	select {
	case s.busy <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.busy }()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.cmu.Lock()
	conv, convID := s.conv, s.id
	s.cmu.Unlock()
	log := s.log.Conv(convID)

	done := log.Timed(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskComplete})
	log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskStart, Query: question})

	conv.AddUser(question)

	body, err := s.client.Ask(ctx, question, convID)
	if err != nil {
		if ctx.Err() != nil {
			cancelled(log)
			return ctx.Err()
		}
		failed(log, err)
		conv.Fail(err)
		return err
	}
	defer body.Close()

	reply := conv.BeginAssistant()
	asm := NewAssembler(reply)
	reader := NewEventReader(body, log)

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			// A stream ending without complete still counts as an answer.
			reply.Done()
			log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindStreamEOF})
			done(func(e *otel.Event) { e.Count = asm.Tokens() })
			return nil
		}
		if err != nil {
			reply.Done()
			if ctx.Err() != nil {
				cancelled(log)
				return ctx.Err()
			}
			err = fmt.Errorf("chat: read stream: %w", err)
			failed(log, err)
			conv.Fail(err)
			return err
		}

		out := asm.Apply(ev)
		LogEvent(log, ev)
		if onUpdate != nil && out.Kind != OutcomeFailed {
			onUpdate(reply.Snapshot())
		}

		switch out.Kind {
		case OutcomeComplete:
			done(func(e *otel.Event) { e.Count = asm.Tokens() })
			return nil
		case OutcomeFailed:
			serr := out.Err()
			failed(log, serr)
			conv.Fail(serr)
			if onUpdate != nil {
				if t, ok := conv.Last(); ok {
					onUpdate(t)
				}
			}
			return serr
		}
	}
}

// register makes cancel the one Cancel and the next Ask reach, cancelling
// whatever was registered before.
func (s *Session) register(cancel context.CancelFunc) uint64 {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.seq++
	return s.seq
}

// release drops the registered cancel if no later Ask replaced it.
func (s *Session) release(seq uint64) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.seq == seq {
		s.cancel = nil
	}
}

func failed(log otel.Conv, err error) {
	logging.Warn("ask failed", "conv", log.ID(), "err", err)
	log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindAskError, Err: err.Error()})
}

func cancelled(log otel.Conv) {
	log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskCancel})
}
