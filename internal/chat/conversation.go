// Package chat holds the conversation state of the question-answer view and
// folds decoded stream events into it.
package chat

import (
	"sync"

	"github.com/abelbrown/boardview/internal/model"
)

// FailureMessage is shown in place of an answer that could not be fetched.
const FailureMessage = "エラーが発生しました。もう一度お試しください。"

// Conversation is the ordered list of turns. Only the trailing assistant
// turn, through its Reply, ever changes after it is added.
type Conversation struct {
	mu    sync.RWMutex
	turns []*model.Turn
	open  *Reply
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// AddUser appends a fixed user turn.
func (c *Conversation) AddUser(question string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeOpen()
	c.turns = append(c.turns, &model.Turn{Role: model.RoleUser, Content: question})
}

// BeginAssistant appends an empty assistant turn and returns its handle.
// Any earlier open reply is finished first.
func (c *Conversation) BeginAssistant() *Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeOpen()
	t := &model.Turn{Role: model.RoleAssistant}
	c.turns = append(c.turns, t)
	c.open = &Reply{conv: c, turn: t}
	return c.open
}

// AddError appends a synthetic assistant turn carrying msg.
func (c *Conversation) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeOpen()
	c.turns = append(c.turns, &model.Turn{Role: model.RoleAssistant, Content: msg, Err: true})
}

// Turns returns a copy of every turn in order.
func (c *Conversation) Turns() []model.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Turn, len(c.turns))
	for i, t := range c.turns {
		out[i] = t.Clone()
	}
	return out
}

// Len is the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Last returns a copy of the trailing turn.
func (c *Conversation) Last() (model.Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return model.Turn{}, false
	}
	return c.turns[len(c.turns)-1].Clone(), true
}

// Streaming reports whether an assistant turn is still open.
func (c *Conversation) Streaming() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open != nil
}

// closeOpen must be called with mu held.
func (c *Conversation) closeOpen() {
	if c.open != nil {
		c.open.done = true
		c.open = nil
	}
}

// Reply is the handle to one assistant turn while it streams. Writes after
// Done are ignored.
type Reply struct {
	conv *Conversation
	turn *model.Turn
	done bool
}

// AppendToken extends the answer text.
func (r *Reply) AppendToken(tok string) {
	r.conv.mu.Lock()
	defer r.conv.mu.Unlock()
	if r.done {
		return
	}
	r.turn.Content += tok
}

// SetCitations replaces the citation list with a copy of cs.
func (r *Reply) SetCitations(cs []model.Citation) {
	r.conv.mu.Lock()
	defer r.conv.mu.Unlock()
	if r.done {
		return
	}
	cp := make([]model.Citation, len(cs))
	copy(cp, cs)
	r.turn.Citations = cp
}

// Done closes the turn.
func (r *Reply) Done() {
	r.conv.mu.Lock()
	defer r.conv.mu.Unlock()
	if r.conv.open == r {
		r.conv.open = nil
	}
	r.done = true
}

// Snapshot returns a copy of the turn as it stands.
func (r *Reply) Snapshot() model.Turn {
	r.conv.mu.RLock()
	defer r.conv.mu.RUnlock()
	return r.turn.Clone()
}
