// Package ui provides the Bubble Tea TUI for boardview.
package ui

import (
	"github.com/abelbrown/boardview/internal/ranking"
	"github.com/abelbrown/boardview/internal/sse"
	"github.com/abelbrown/boardview/internal/status"
)

// streamItem is one value sent by the stream reader goroutine.
type streamItem struct {
	ev  sse.Event
	err error
}

// chatStreamStartMsg is sent once the answer stream is open, carries the channel.
type chatStreamStartMsg struct {
	gen    int
	events <-chan streamItem
}

// chatEventMsg carries one decoded stream event.
type chatEventMsg struct {
	gen    int
	ev     sse.Event
	events <-chan streamItem
}

// chatStreamEndMsg is sent when the stream closed or could not be opened.
// opened is false when the request itself failed.
type chatStreamEndMsg struct {
	gen    int
	opened bool
	err    error
}

// searchDoneMsg is sent when a submit or load-more finished. The pager
// already holds the new rows.
type searchDoneMsg struct {
	oekaki bool
	more   bool
	err    error
}

// rankingDoneMsg is sent when a ranking load finished.
type rankingDoneMsg struct {
	state ranking.State
}

// jumpToSearchMsg asks the app to open the search tab filtered by ID.
type jumpToSearchMsg struct {
	id string
}

// statusTickMsg triggers the next index status poll.
type statusTickMsg struct {
	gen uint64
}

// statusResultMsg carries one poll outcome.
type statusResultMsg struct {
	gen    uint64
	result status.Result
}
