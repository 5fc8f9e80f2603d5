package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/abelbrown/boardview/internal/chat"
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/render"
)

// chatModel is the question-answer tab. The conversation is mutated only
// from Update; the reader goroutine just forwards events.
type chatModel struct {
	asker chat.Asker
	log   *otel.Logger
	ctx   context.Context

	conv   *chat.Conversation
	convID string
	reply  *chat.Reply
	asm    *chat.Assembler

	// gen tags the current stream; messages from older streams are dropped.
	gen       int
	streaming bool
	cancel    context.CancelFunc
	done      func(func(*otel.Event))

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

func newChatModel(ctx context.Context, asker chat.Asker, log *otel.Logger) chatModel {
	ti := textinput.New()
	ti.Placeholder = "掲示板について質問してください"
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	return chatModel{
		asker:    asker,
		log:      log,
		ctx:      ctx,
		conv:     chat.NewConversation(),
		convID:   uuid.NewString(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  s,
	}
}

// SetSize lays out the transcript above the prompt.
func (m *chatModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4
	vh := height - 2
	if vh < 1 {
		vh = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.refresh()
}

// Typing reports whether the prompt holds the keyboard.
func (m chatModel) Typing() bool {
	return m.input.Focused()
}

// Streaming reports whether an answer is arriving.
func (m chatModel) Streaming() bool {
	return m.streaming
}

// Turns returns the transcript (for testing).
func (m chatModel) Turns() []model.Turn {
	return m.conv.Turns()
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case chatStreamStartMsg:
		// Cancelled while the request was opening: the reader exits on its own.
		if msg.gen != m.gen || !m.streaming {
			return m, nil
		}
		m.reply = m.conv.BeginAssistant()
		m.asm = chat.NewAssembler(m.reply)
		m.refresh()
		return m, waitForStream(msg.gen, msg.events)

	case chatEventMsg:
		if msg.gen != m.gen || m.asm == nil {
			return m, nil
		}
		out := m.asm.Apply(msg.ev)
		chat.LogEvent(m.events(), msg.ev)
		switch out.Kind {
		case chat.OutcomeComplete:
			m.finish(nil)
		case chat.OutcomeFailed:
			err := out.Err()
			m.conv.Fail(err)
			m.finish(err)
		default:
			m.refresh()
			return m, waitForStream(msg.gen, msg.events)
		}
		m.refresh()
		return m, nil

	case chatStreamEndMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		err := msg.err
		if err != nil && msg.opened {
			err = fmt.Errorf("read stream: %w", err)
		}
		m.conv.Fail(err)
		m.finish(err)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd, blink tea.Cmd
	m.input, blink = m.input.Update(msg)
	m.viewport, cmd = m.viewport.Update(msg)
	return m, tea.Batch(blink, cmd)
}

func (m chatModel) handleKey(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		if m.streaming {
			m.stop()
			m.events().Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskCancel})
			m.finish(context.Canceled)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, keys.Reset):
		m.stop()
		m.streaming = false
		m.conv = chat.NewConversation()
		m.convID = uuid.NewString()
		m.reply, m.asm = nil, nil
		m.refresh()
		return m, nil
	}

	if !m.input.Focused() {
		switch {
		case key.Matches(msg, keys.Focus), key.Matches(msg, keys.Submit):
			cmd := m.input.Focus()
			return m, cmd
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Blur):
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Submit):
		q := strings.TrimSpace(m.input.Value())
		if q == "" {
			return m, nil
		}
		m.input.SetValue("")
		return m.ask(q)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask starts a new question, cancelling any answer still streaming.
func (m chatModel) ask(q string) (chatModel, tea.Cmd) {
	if m.streaming {
		m.stop()
		m.finish(context.Canceled)
	}
	m.gen++
	m.conv.AddUser(q)
	m.streaming = true

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	log := m.events()
	m.done = log.Timed(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskComplete})
	log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAskStart, Query: q})
	m.refresh()

	return m, tea.Batch(openStream(ctx, m.asker, log, m.gen, q), m.spinner.Tick)
}

// stop cancels the request of the current stream. Anything that stream
// still delivers is stale afterwards.
func (m *chatModel) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.gen++
	}
}

// finish closes the current answer and logs its outcome.
func (m *chatModel) finish(err error) {
	if m.reply != nil {
		m.reply.Done()
	}
	m.stop()
	m.streaming = false
	m.reply, m.asm = nil, nil
	switch {
	case err == nil:
		if m.done != nil {
			m.done(nil)
		}
	case chat.Cancelled(err):
	default:
		m.events().Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindAskError, Err: err.Error()})
	}
	m.done = nil
}

// events is the event log of the current conversation.
func (m chatModel) events() otel.Conv {
	return m.log.Conv(m.convID)
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(renderTranscript(m.conv.Turns(), m.width))
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.streaming {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(m.input.View())
	return b.String()
}

// openStream issues the question and, once the response is open, forwards
// its events over a channel until the body ends or ctx is cancelled.
func openStream(ctx context.Context, asker chat.Asker, log otel.Conv, gen int, q string) tea.Cmd {
	return func() tea.Msg {
		body, err := asker.Ask(ctx, q, log.ID())
		if err != nil {
			return chatStreamEndMsg{gen: gen, err: err}
		}
		events := make(chan streamItem, 16)
		go readStream(ctx, body, log, events)
		return chatStreamStartMsg{gen: gen, events: events}
	}
}

func readStream(ctx context.Context, body io.ReadCloser, log otel.Conv, out chan<- streamItem) {
	defer close(out)
	defer body.Close()

	send := func(it streamItem) bool {
		select {
		case out <- it:
			return true
		case <-ctx.Done():
			return false
		}
	}

	r := chat.NewEventReader(body, log)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			send(streamItem{err: err})
			return
		}
		if !send(streamItem{ev: ev}) {
			return
		}
	}
}

// waitForStream blocks for the next stream item.
func waitForStream(gen int, events <-chan streamItem) tea.Cmd {
	return func() tea.Msg {
		it, ok := <-events
		if !ok {
			return chatStreamEndMsg{gen: gen, opened: true}
		}
		if it.err != nil {
			return chatStreamEndMsg{gen: gen, opened: true, err: it.err}
		}
		return chatEventMsg{gen: gen, ev: it.ev, events: events}
	}
}

// renderTranscript renders every turn with its citations.
// Pure function, no side effects.
func renderTranscript(turns []model.Turn, width int) string {
	if len(turns) == 0 {
		return HelpStyle.Render("掲示板について質問してください")
	}
	wrap := lipgloss.NewStyle()
	if width > 4 {
		wrap = wrap.Width(width - 2)
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case t.Role == model.RoleUser:
			b.WriteString(UserLabel.Render("あなた") + "\n")
		default:
			b.WriteString(AssistantLabel.Render("AI") + "\n")
		}
		body := t.Content
		if t.Err {
			body = ErrorStyle.Render(body)
		}
		b.WriteString(wrap.Render(body) + "\n")

		if len(t.Citations) > 0 {
			b.WriteString(CitationStyle.Render("参照:") + "\n")
			for _, c := range t.Citations {
				line := fmt.Sprintf("No.%d %s %s  %s", c.SourcePostNo, c.Author, render.Timestamp(c.Timestamp), render.Truncate(render.OneLine(c.ContentExcerpt), 60))
				b.WriteString(CitationStyle.Render(line) + "\n")
			}
		}
	}
	return b.String()
}
