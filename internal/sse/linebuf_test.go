package sse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineBufferCarriesPartialLine(t *testing.T) {
	var b LineBuffer

	if got := b.Feed([]byte(`data: {"type":"tok`)); len(got) != 0 {
		t.Fatalf("Feed() = %q, want no lines", got)
	}
	if b.Pending() == 0 {
		t.Fatal("partial line not carried")
	}
	got := b.Feed([]byte("en\",\"token\":\"Hi\"}\n\ndata: x"))
	want := []string{`data: {"type":"token","token":"Hi"}`, ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Feed() mismatch (-want +got):\n%s", diff)
	}

	line, ok := b.Flush()
	if !ok || line != "data: x" {
		t.Errorf("Flush() = %q, %v", line, ok)
	}
	if _, ok := b.Flush(); ok {
		t.Error("second Flush() returned a line")
	}
}

func TestLineBufferStripsCR(t *testing.T) {
	var b LineBuffer
	got := b.Feed([]byte("data: a\r\n\r\ndata: b\r"))
	if diff := cmp.Diff([]string{"data: a", ""}, got); diff != "" {
		t.Errorf("Feed() mismatch (-want +got):\n%s", diff)
	}
	// The \r of a CRLF split across chunks still goes.
	got = b.Feed([]byte("\n"))
	if diff := cmp.Diff([]string{"data: b"}, got); diff != "" {
		t.Errorf("Feed() mismatch (-want +got):\n%s", diff)
	}
}

func TestLineBufferSplitsMultiByteRune(t *testing.T) {
	text := []byte("data: こんにちは\n")
	// Cut inside the first rune's three-byte encoding.
	cut := len("data: ") + 1

	var b LineBuffer
	if got := b.Feed(text[:cut]); len(got) != 0 {
		t.Fatalf("Feed() = %q", got)
	}
	got := b.Feed(text[cut:])
	if len(got) != 1 || got[0] != "data: こんにちは" {
		t.Errorf("Feed() = %q", got)
	}
}

func TestLineBufferChunkInvariance(t *testing.T) {
	stream := []byte("data: one\ndata: two\r\n\ndata: three\n")
	var whole LineBuffer
	want := whole.Feed(stream)

	for size := 1; size <= len(stream); size++ {
		var b LineBuffer
		var got []string
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, b.Feed(stream[i:end])...)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("chunk size %d mismatch (-want +got):\n%s", size, diff)
		}
	}
}
