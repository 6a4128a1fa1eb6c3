package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/reconcile"
)

// StartDragInput contains the parameters for starting a gesture.
type StartDragInput struct {
	ID string // Task or column being picked up
}

// StartDragOutput contains the started session.
type StartDragOutput struct {
	Session drag.Session
}

// StartDrag picks up a task or column.
type StartDrag struct {
	machine *drag.Machine
	logger  domain.Logger
}

// NewStartDrag creates a new StartDrag use case.
func NewStartDrag(machine *drag.Machine, logger domain.Logger) *StartDrag {
	return &StartDrag{machine: machine, logger: orNop(logger)}
}

// Execute starts the gesture.
func (uc *StartDrag) Execute(_ context.Context, in StartDragInput) (*StartDragOutput, error) {
	s, err := uc.machine.Start(in.ID)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug(in.ID, "drag", fmt.Sprintf("start %s", s.Kind))
	return &StartDragOutput{Session: s}, nil
}

// DragOverInput contains the hovered entity.
type DragOverInput struct {
	OverID string // Hovered task or column; empty when over nothing
}

// DragOverOutput reports the provisional update.
type DragOverOutput struct {
	Snapshot domain.Snapshot
	Changed  bool
}

// DragOver applies the provisional reorder implied by a hover.
type DragOver struct {
	machine *drag.Machine
	model   *board.Model
}

// NewDragOver creates a new DragOver use case.
func NewDragOver(machine *drag.Machine, model *board.Model) *DragOver {
	return &DragOver{machine: machine, model: model}
}

// Execute handles the hover.
func (uc *DragOver) Execute(_ context.Context, in DragOverInput) (*DragOverOutput, error) {
	changed, err := uc.machine.Over(in.OverID)
	if err != nil {
		return nil, fmt.Errorf("drag over: %w", err)
	}
	return &DragOverOutput{Changed: changed, Snapshot: uc.model.Snapshot()}, nil
}

// DropInput contains the drop target.
type DropInput struct {
	OverID string // Drop target; empty when dropped outside any target
	Cancel bool   // Gesture aborted; the provisional arrangement is still committed
}

// DropOutput contains the committed decision.
type DropOutput struct {
	Commit   *drag.Commit // nil when nothing changed
	Pending  []*reconcile.Pending
	Snapshot domain.Snapshot
}

// Drop ends the gesture and submits the final order.
type Drop struct {
	machine *drag.Machine
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewDrop creates a new Drop use case.
func NewDrop(machine *drag.Machine, model *board.Model, gateway Submitter, logger domain.Logger) *Drop {
	return &Drop{machine: machine, model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute ends the gesture.
func (uc *Drop) Execute(ctx context.Context, in DropInput) (*DropOutput, error) {
	var (
		c   *drag.Commit
		err error
	)
	if in.Cancel {
		c, err = uc.machine.Cancel()
	} else {
		c, err = uc.machine.End(in.OverID)
	}
	if err != nil {
		return nil, fmt.Errorf("drop: %w", err)
	}

	out := &DropOutput{Commit: c, Snapshot: uc.model.Snapshot()}
	if c == nil {
		return out, nil
	}
	out.Pending = submitCommit(ctx, uc.gateway, c)
	switch c.Kind {
	case domain.KindTask:
		uc.logger.Info(string(domain.TaskScope(c.TaskID)), "drag", fmt.Sprintf("dropped %s -> %s", c.FromColumn, c.ToColumn))
	case domain.KindColumn:
		uc.logger.Info(string(domain.ColumnsScope), "drag", fmt.Sprintf("dropped column %s", c.ColumnID))
	}
	return out, nil
}
