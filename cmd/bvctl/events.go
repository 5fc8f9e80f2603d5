package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	ConvID    string         `json:"conv"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Cursor    int            `json:"cursor"`
	Query     string         `json:"query"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// eventFilter selects which records are printed.
type eventFilter struct {
	kind     string
	level    string
	minLevel int
	comp     string
	conv     string
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < f.minLevel {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.conv != "" && ev.ConvID != f.conv {
		return false
	}
	return true
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "JSONL event log viewer",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tail", Value: 50, Usage: "Number of recent lines to show"},
			&cli.BoolFlag{Name: "f", Usage: "Follow mode (like tail -f)"},
			&cli.StringFlag{Name: "kind", Usage: "Filter by event kind prefix (e.g. 'search')"},
			&cli.StringFlag{Name: "level", Usage: "Minimum level: debug, info, warn, error"},
			&cli.StringFlag{Name: "comp", Usage: "Filter by component name"},
			&cli.StringFlag{Name: "conv", Usage: "Filter by conversation ID"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON lines"},
			&cli.StringFlag{Name: "file", Usage: "Event log path (default from config)"},
		},
		Action: runEvents,
	}
}

func runEvents(c *cli.Context) error {
	logPath := c.String("file")
	if logPath == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logPath = cfg.EventLogPath()
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run boardview first to generate events): %w", logPath, err)
	}
	defer f.Close()

	filter := eventFilter{
		kind:     c.String("kind"),
		level:    c.String("level"),
		minLevel: levelRank(c.String("level")),
		comp:     c.String("comp"),
		conv:     c.String("conv"),
	}
	rawJSON := c.Bool("json")

	for _, l := range readTailLines(f, c.Int("tail"), filter.match) {
		fmt.Println(formatEvent(l.ev, l.raw, rawJSON))
	}
	if !c.Bool("f") {
		return nil
	}

	ctx, stop := signalContext(c)
	defer stop()
	return follow(ctx, f, filter.match, func(ev eventRecord, raw []byte) {
		fmt.Println(formatEvent(ev, raw, rawJSON))
	})
}

// follow polls r for appended lines until ctx is cancelled.
func follow(ctx context.Context, r io.Reader, match func(eventRecord) bool, emit func(eventRecord, []byte)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			emit(ev, line)
		}
	}
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-18s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Cursor > 0 {
		parts = append(parts, fmt.Sprintf("cursor=%d", ev.Cursor))
	}
	if ev.ConvID != "" {
		parts = append(parts, "conv="+truncate(ev.ConvID, 8))
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) || n <= 0 {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			// Shift left
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}

// truncate shortens a string to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
