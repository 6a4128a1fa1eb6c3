package usecase

import (
	"context"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/view"
)

// ShowBoardInput contains the parameters for projecting the board.
type ShowBoardInput struct{}

// ShowBoardOutput contains the render-ready board.
type ShowBoardOutput struct {
	Board view.Board
}

// ShowBoard projects the current model for rendering.
type ShowBoard struct {
	model   *board.Model
	machine *drag.Machine // optional
}

// NewShowBoard creates a new ShowBoard use case.
func NewShowBoard(model *board.Model, machine *drag.Machine) *ShowBoard {
	return &ShowBoard{model: model, machine: machine}
}

// Execute returns the projection, marking the dragged entity if any.
func (uc *ShowBoard) Execute(_ context.Context, _ ShowBoardInput) (*ShowBoardOutput, error) {
	var active string
	if uc.machine != nil {
		if s, ok := uc.machine.Active(); ok {
			active = s.ID
		}
	}
	return &ShowBoardOutput{Board: view.Project(uc.model.Snapshot(), active)}, nil
}
