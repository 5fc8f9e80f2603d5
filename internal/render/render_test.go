package render

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormatTime(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-01T12:00:00", "2024/05/01 12:00:00"},
		{"2024-05-01T12:00:00.123456", "2024/05/01 12:00:00"},
		{"2024-05-01 12:00:00", "2024/05/01 12:00:00"},
		{"2024-05-01T03:00:00Z", "2024/05/01 12:00:00"},
		{"2024-05-01T12:00:00+09:00", "2024/05/01 12:00:00"},
		{"2024-05-01", "2024/05/01 00:00:00"},
		{"昨日", "昨日"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in, TimestampLayout, tokyo); got != tt.want {
			t.Errorf("FormatTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count(1234567); got != "1,234,567" {
		t.Errorf("Count() = %q", got)
	}
	if got := Count(12); got != "12" {
		t.Errorf("Count() = %q", got)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"line breaks", "one<br>two<br/>three", "one\ntwo\nthree"},
		{"anchor text kept", `<a href="/?no=12">&gt;&gt;12</a> 同意`, ">>12 同意"},
		{"entities", "a &amp; b", "a & b"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	got := Links(`<a href="/?no=12">&gt;&gt;12</a> and <a href="https://example.com">site</a>`)
	want := []Link{{Text: ">>12", Href: "/?no=12"}, {Text: "site", Href: "https://example.com"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Links() mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"こんにちは", 10, "こんにちは"},
		{"こんにちは", 3, "こん…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("a\n b\t\tc  "); got != "a b c" {
		t.Errorf("OneLine() = %q", got)
	}
}
