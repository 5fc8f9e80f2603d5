package sse

import "bytes"

// LineBuffer splits a chunked byte stream into lines. Chunk boundaries may fall
// anywhere, including inside a multi-byte UTF-8 sequence; the partial trailing
// line is carried as raw bytes until its newline arrives.
type LineBuffer struct {
	partial []byte
}

// Feed appends chunk and returns every line it completes, without the
// terminator. A trailing \r is stripped.
func (b *LineBuffer) Feed(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			b.partial = append(b.partial, chunk...)
			break
		}
		var line []byte
		if len(b.partial) > 0 {
			line = append(b.partial, chunk[:i]...)
		} else {
			line = chunk[:i]
		}
		lines = append(lines, string(trimCR(line)))
		b.partial = b.partial[:0]
		chunk = chunk[i+1:]
	}
	return lines
}

// Flush returns the unterminated final line, if any, and resets the buffer.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.partial) == 0 {
		return "", false
	}
	line := string(trimCR(b.partial))
	b.partial = b.partial[:0]
	return line, true
}

// Pending is the number of carried bytes.
func (b *LineBuffer) Pending() int {
	return len(b.partial)
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
