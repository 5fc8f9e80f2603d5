package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

const helloStream = "data: {\"type\":\"token\",\"token\":\"Hi\"}\r\n\r\n" +
	": keepalive\r\n\r\n" +
	"data: {\"type\":\"token\",\"token\":\" there\"}\r\n\r\n" +
	"data: {\"type\":\"citations\",\"citations\":[{\"source_post_no\":5,\"author\":\"a\",\"timestamp\":\"t\",\"content_excerpt\":\"c\"}]}\r\n\r\n" +
	"data: {\"type\":\"complete\"}\r\n\r\n"

func drain(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		out = append(out, ev)
	}
}

func TestReaderTokenConcatenationIsChunkInvariant(t *testing.T) {
	whole := drain(t, NewReader(strings.NewReader(helloStream)))
	if len(whole) != 4 {
		t.Fatalf("got %d events, want 4", len(whole))
	}

	for _, size := range []int{1, 2, 3, 7, 16, 64} {
		got := drain(t, NewReader(strings.NewReader(helloStream), WithReadSize(size)))
		if diff := cmp.Diff(whole, got); diff != "" {
			t.Errorf("read size %d mismatch (-want +got):\n%s", size, diff)
		}
	}

	// OneByteReader returns a single byte per Read regardless of buffer size.
	got := drain(t, NewReader(iotest.OneByteReader(strings.NewReader(helloStream))))
	if diff := cmp.Diff(whole, got); diff != "" {
		t.Errorf("one byte reader mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderSkipsBadLines(t *testing.T) {
	stream := "data: {broken\n" +
		"data: {\"type\":\"mystery\"}\n" +
		"data: {\"type\":\"token\",\"token\":\"ok\"}\n"

	var skipped []string
	r := NewReader(strings.NewReader(stream), OnSkip(func(line string, err error) {
		skipped = append(skipped, line)
	}))
	got := drain(t, r)

	if diff := cmp.Diff([]Event{Token{Token: "ok"}}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if len(skipped) != 2 {
		t.Errorf("skipped %d lines, want 2: %q", len(skipped), skipped)
	}
}

func TestReaderFlushesUnterminatedLine(t *testing.T) {
	got := drain(t, NewReader(strings.NewReader(`data: {"type":"complete"}`)))
	if diff := cmp.Diff([]Event{Complete{}}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderReportsTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	body := io.MultiReader(strings.NewReader("data: {\"type\":\"token\",\"token\":\"a\"}\n"), iotest.ErrReader(boom))
	r := NewReader(body)

	ev, err := r.Next()
	if err != nil || ev != (Token{Token: "a"}) {
		t.Fatalf("Next() = %v, %v", ev, err)
	}
	if _, err := r.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want %v", err, boom)
	}
	if _, err := r.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() after failure = %v, want sticky %v", err, boom)
	}
}
