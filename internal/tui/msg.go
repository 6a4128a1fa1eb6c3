package tui

import (
	"github.com/runoshun/board/internal/view"
)

// Msg is a marker interface for all TUI messages.
// This provides type safety for message handling.
type Msg interface {
	sealed()
}

// MsgBoardLoaded is sent when the initial fetch completes.
type MsgBoardLoaded struct {
	Board   view.Board
	Dropped int // tasks ignored because their column does not exist
}

func (MsgBoardLoaded) sealed() {}

// MsgBoardChanged is sent when the ordering model changed outside of a key
// press, such as when the store acknowledged or refetched.
type MsgBoardChanged struct{}

func (MsgBoardChanged) sealed() {}

// MsgSynced is sent when the mutations issued by one action have finished.
type MsgSynced struct {
	Err error // first failure; nil when every mutation succeeded
}

func (MsgSynced) sealed() {}

// MsgError is sent when an action fails before reaching the store.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}
