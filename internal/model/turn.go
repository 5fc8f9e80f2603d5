// Package model holds the wire and view types shared by the boardview packages.
package model

// Role identifies who authored a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation references a source post backing part of an assistant answer.
// Immutable once received.
type Citation struct {
	SourcePostNo   int    `json:"source_post_no"`
	Author         string `json:"author"`
	Timestamp      string `json:"timestamp"`
	ContentExcerpt string `json:"content_excerpt"`
}

// Turn is one message in a chat conversation.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`

	// Err marks a synthetic turn standing in for a failed answer.
	Err bool `json:"err,omitempty"`
}

// Clone returns a deep copy of t so callers can hand turns to a renderer
// without sharing the citation backing array.
func (t Turn) Clone() Turn {
	if t.Citations != nil {
		cp := make([]Citation, len(t.Citations))
		copy(cp, t.Citations)
		t.Citations = cp
	}
	return t
}
