package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/boardview/internal/model"
)

type fakeAsker struct {
	mu        sync.Mutex
	questions []string
	convIDs   []string
	open      func(ctx context.Context) (io.ReadCloser, error)
}

func (f *fakeAsker) Ask(ctx context.Context, question, conversationID string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.convIDs = append(f.convIDs, conversationID)
	f.mu.Unlock()
	return f.open(ctx)
}

func streamOf(s string) func(context.Context) (io.ReadCloser, error) {
	return func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(iotest.HalfReader(strings.NewReader(s))), nil
	}
}

const helloAnswer = "data: {\"type\":\"token\",\"token\":\"Hi\"}\r\n\r\n" +
	"data: {\"type\":\"token\",\"token\":\" there\"}\r\n\r\n" +
	"data: {\"type\":\"citations\",\"citations\":[{\"source_post_no\":5,\"author\":\"名無し\",\"timestamp\":\"2024-05-01T12:00:00\",\"content_excerpt\":\"hello\"}]}\r\n\r\n" +
	"data: {\"type\":\"complete\"}\r\n\r\n"

func TestAskHelloEndToEnd(t *testing.T) {
	asker := &fakeAsker{open: streamOf(helloAnswer)}
	s := NewSession(asker, nil)

	var updates int
	if err := s.Ask(context.Background(), "hello", func(model.Turn) { updates++ }); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	want := []model.Turn{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "Hi there", Citations: []model.Citation{
			{SourcePostNo: 5, Author: "名無し", Timestamp: "2024-05-01T12:00:00", ContentExcerpt: "hello"},
		}},
	}
	if diff := cmp.Diff(want, s.Conversation().Turns()); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}
	if updates != 4 {
		t.Errorf("onUpdate called %d times, want 4", updates)
	}
	if asker.convIDs[0] != s.ID() || s.ID() == "" {
		t.Errorf("conversation id sent = %q, session id = %q", asker.convIDs[0], s.ID())
	}
	if s.Conversation().Streaming() {
		t.Error("reply still open after complete")
	}
}

func TestAskStopsAtComplete(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"token\":\"done\"}\n" +
		"data: {\"type\":\"complete\"}\n" +
		"data: {\"type\":\"token\",\"token\":\" ignored\"}\n"
	s := NewSession(&fakeAsker{open: streamOf(stream)}, nil)
	if err := s.Ask(context.Background(), "q", nil); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	last, _ := s.Conversation().Last()
	if last.Content != "done" {
		t.Errorf("content = %q, want %q", last.Content, "done")
	}
}

func TestAskBackendErrorEvent(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"token\":\"part\"}\n" +
		"data: {\"type\":\"error\",\"message\":\"LLM unavailable\"}\n" +
		"data: {\"type\":\"token\",\"token\":\" never\"}\n"
	s := NewSession(&fakeAsker{open: streamOf(stream)}, nil)

	err := s.Ask(context.Background(), "q", nil)
	var serr *StreamError
	if !errors.As(err, &serr) || serr.Message != "LLM unavailable" {
		t.Fatalf("Ask() error = %v, want StreamError", err)
	}

	turns := s.Conversation().Turns()
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3: %+v", len(turns), turns)
	}
	if turns[1].Content != "part" {
		t.Errorf("partial answer = %q", turns[1].Content)
	}
	if !turns[2].Err || turns[2].Content != ErrorText("LLM unavailable") {
		t.Errorf("error turn = %+v", turns[2])
	}
}

func TestAskRequestFailure(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewSession(&fakeAsker{open: func(context.Context) (io.ReadCloser, error) { return nil, boom }}, nil)

	if err := s.Ask(context.Background(), "q", nil); !errors.Is(err, boom) {
		t.Fatalf("Ask() error = %v, want %v", err, boom)
	}
	turns := s.Conversation().Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[1].Role != model.RoleAssistant || turns[1].Content != FailureMessage || !turns[1].Err {
		t.Errorf("failure turn = %+v", turns[1])
	}
}

func TestAskBrokenStream(t *testing.T) {
	open := func(context.Context) (io.ReadCloser, error) {
		body := io.MultiReader(strings.NewReader("data: {\"type\":\"token\",\"token\":\"Hi\"}\n"), iotest.ErrReader(errors.New("reset")))
		return io.NopCloser(body), nil
	}
	s := NewSession(&fakeAsker{open: open}, nil)
	if err := s.Ask(context.Background(), "q", nil); err == nil {
		t.Fatal("Ask() should fail on a broken stream")
	}
	turns := s.Conversation().Turns()
	if len(turns) != 3 || turns[1].Content != "Hi" || turns[2].Content != FailureMessage {
		t.Errorf("turns = %+v", turns)
	}
}

func TestAskSkipsMalformedLines(t *testing.T) {
	stream := "data: {oops\n" +
		"data: {\"type\":\"token\",\"token\":\"ok\"}\n" +
		"data: {\"type\":\"complete\"}\n"
	s := NewSession(&fakeAsker{open: streamOf(stream)}, nil)
	if err := s.Ask(context.Background(), "q", nil); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if last, _ := s.Conversation().Last(); last.Content != "ok" {
		t.Errorf("content = %q", last.Content)
	}
}

// blockingStream delivers one token then blocks until ctx is cancelled.
func blockingStream(ctx context.Context) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	go func() {
		io.WriteString(pw, "data: {\"type\":\"token\",\"token\":\"slow\"}\n")
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	return pr, nil
}

func TestCancelStopsStream(t *testing.T) {
	s := NewSession(&fakeAsker{open: blockingStream}, nil)

	started := make(chan struct{})
	var once sync.Once
	errc := make(chan error, 1)
	go func() {
		errc <- s.Ask(context.Background(), "q", func(model.Turn) { once.Do(func() { close(started) }) })
	}()

	<-started
	s.Cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Ask() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ask() did not return after Cancel")
	}

	turns := s.Conversation().Turns()
	if len(turns) != 2 || turns[1].Err {
		t.Errorf("cancel should not add an error turn: %+v", turns)
	}
}

func TestNewAskCancelsPrevious(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	open := func(ctx context.Context) (io.ReadCloser, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return blockingStream(ctx)
		}
		return streamOf("data: {\"type\":\"token\",\"token\":\"second\"}\ndata: {\"type\":\"complete\"}\n")(ctx)
	}
	s := NewSession(&fakeAsker{open: open}, nil)

	started := make(chan struct{})
	var once sync.Once
	first := make(chan error, 1)
	go func() {
		first <- s.Ask(context.Background(), "one", func(model.Turn) { once.Do(func() { close(started) }) })
	}()
	<-started

	if err := s.Ask(context.Background(), "two", nil); err != nil {
		t.Fatalf("second Ask() error: %v", err)
	}
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("first Ask() error = %v, want context.Canceled", err)
	}

	turns := s.Conversation().Turns()
	var contents []string
	for _, tr := range turns {
		contents = append(contents, tr.Content)
	}
	want := []string{"one", "slow", "two", "second"}
	if diff := cmp.Diff(want, contents); diff != "" {
		t.Errorf("turn contents mismatch (-want +got):\n%s", diff)
	}
}

func TestResetStartsNewConversation(t *testing.T) {
	s := NewSession(&fakeAsker{open: streamOf(helloAnswer)}, nil)
	oldID := s.ID()
	if err := s.Ask(context.Background(), "hello", nil); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if s.ID() == oldID {
		t.Error("Reset() kept the conversation id")
	}
	if s.Conversation().Len() != 0 {
		t.Errorf("Reset() left %d turns", s.Conversation().Len())
	}
}

func TestConcurrentAsksSupersede(t *testing.T) {
	// Two Asks racing to start: whichever registers last wins and the other
	// must return promptly instead of waiting behind a stream that never ends.
	for i := 0; i < 20; i++ {
		s := NewSession(&fakeAsker{open: blockingStream}, nil)
		errc := make(chan error, 2)
		start := make(chan struct{})
		for _, q := range []string{"one", "two"} {
			go func(q string) {
				<-start
				errc <- s.Ask(context.Background(), q, nil)
			}(q)
		}
		close(start)

		select {
		case err := <-errc:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("iteration %d: superseded Ask() error = %v, want context.Canceled", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: neither Ask() returned; the later one did not cancel the earlier", i)
		}

		s.Cancel()
		select {
		case err := <-errc:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("iteration %d: remaining Ask() error = %v, want context.Canceled", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: Cancel() did not stop the remaining Ask()", i)
		}
	}
}
