package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/abelbrown/boardview/internal/model"
)

func TestConversationFail(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		added bool
		want  []model.Turn
	}{
		{name: "nil", err: nil},
		{name: "cancelled", err: context.Canceled},
		{name: "wrapped cancel", err: fmt.Errorf("read stream: %w", context.Canceled)},
		{
			name:  "backend message",
			err:   &StreamError{Message: "index offline"},
			added: true,
			want:  []model.Turn{{Role: model.RoleAssistant, Content: "エラー: index offline", Err: true}},
		},
		{
			name:  "backend without message",
			err:   &StreamError{},
			added: true,
			want:  []model.Turn{{Role: model.RoleAssistant, Content: FailureMessage, Err: true}},
		},
		{
			name:  "transport",
			err:   errors.New("connection reset"),
			added: true,
			want:  []model.Turn{{Role: model.RoleAssistant, Content: FailureMessage, Err: true}},
		},
		{
			name:  "wrapped stream error",
			err:   fmt.Errorf("ask: %w", &StreamError{Message: "busy"}),
			added: true,
			want:  []model.Turn{{Role: model.RoleAssistant, Content: "エラー: busy", Err: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConversation()
			if got := c.Fail(tt.err); got != tt.added {
				t.Errorf("Fail() = %v, want %v", got, tt.added)
			}
			if diff := cmp.Diff(tt.want, c.Turns(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("turns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutcomeErr(t *testing.T) {
	if err := (Outcome{Kind: OutcomeComplete}).Err(); err != nil {
		t.Errorf("complete Err() = %v, want nil", err)
	}
	err := (Outcome{Kind: OutcomeFailed, Message: "boom"}).Err()
	var serr *StreamError
	if !errors.As(err, &serr) || serr.Message != "boom" {
		t.Errorf("failed Err() = %v, want *StreamError{boom}", err)
	}
}
