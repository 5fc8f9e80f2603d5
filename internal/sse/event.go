// Package sse decodes the answer stream of the ask endpoint: newline
// framed "data: <json>" lines carrying token, citations, complete and
// error events.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/boardview/internal/model"
)

const dataPrefix = "data: "

var (
	// ErrMalformed wraps a data line whose payload is not valid JSON.
	ErrMalformed = errors.New("sse: malformed event")
	// ErrUnknownType marks a payload with an unrecognized type, or a known
	// type missing its required field.
	ErrUnknownType = errors.New("sse: unknown event type")
)

// Event is one decoded stream event: Token, Citations, Complete or Error.
type Event interface {
	event()
}

// Token is an incremental fragment of the answer text.
type Token struct {
	Token string
}

// Citations replaces the citation list of the answer being streamed.
type Citations struct {
	Citations []model.Citation
}

// Complete ends the stream normally.
type Complete struct{}

// Error ends the stream with a backend-reported failure.
type Error struct {
	Message string
}

func (Token) event()     {}
func (Citations) event() {}
func (Complete) event()  {}
func (Error) event()     {}

// payload is the wire shape. Pointers distinguish absent fields from zero values.
type payload struct {
	Type      string            `json:"type"`
	Token     *string           `json:"token"`
	Citations *[]model.Citation `json:"citations"`
	Message   string            `json:"message"`
}

// ParseLine decodes one complete line. Lines without the data prefix, and
// data lines with a blank payload, yield (nil, nil).
func ParseLine(line string) (Event, error) {
	if !strings.HasPrefix(line, dataPrefix) {
		return nil, nil
	}
	data := line[len(dataPrefix):]
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch p.Type {
	case "token":
		if p.Token == nil {
			return nil, fmt.Errorf("%w: token event without token", ErrUnknownType)
		}
		return Token{Token: *p.Token}, nil
	case "citations":
		if p.Citations == nil {
			return nil, fmt.Errorf("%w: citations event without citations", ErrUnknownType)
		}
		return Citations{Citations: *p.Citations}, nil
	case "complete":
		return Complete{}, nil
	case "error":
		return Error{Message: p.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
}
