package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/reconcile"
)

// CreateColumnInput contains the parameters for creating a column.
type CreateColumnInput struct {
	Title string // Column title (required)
}

// CreateColumnOutput contains the result of creating a column.
type CreateColumnOutput struct {
	Pending  *reconcile.Pending
	Column   domain.Column
	Snapshot domain.Snapshot
}

// CreateColumn appends a new column.
type CreateColumn struct {
	model   *board.Model
	gateway Submitter
	ids     domain.IDGenerator
	logger  domain.Logger
}

// NewCreateColumn creates a new CreateColumn use case.
func NewCreateColumn(model *board.Model, gateway Submitter, ids domain.IDGenerator, logger domain.Logger) *CreateColumn {
	return &CreateColumn{model: model, gateway: gateway, ids: ids, logger: orNop(logger)}
}

// Execute creates the column locally and submits it.
func (uc *CreateColumn) Execute(ctx context.Context, in CreateColumnInput) (*CreateColumnOutput, error) {
	title, err := domain.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	col := domain.Column{ID: uc.ids.NewID(), Title: title, Color: domain.DefaultColumnColor}
	snap, err := uc.model.CreateColumn(col)
	if err != nil {
		return nil, fmt.Errorf("create column: %w", err)
	}
	col, _ = uc.model.Column(col.ID)

	p := uc.gateway.Submit(ctx, reconcile.CreateColumnMutation(col.ID, col.Title))
	uc.logger.Info(string(domain.ColumnScope(col.ID)), "column", fmt.Sprintf("created: %q", title))
	return &CreateColumnOutput{Column: col, Snapshot: snap, Pending: p}, nil
}

// RenameColumnInput contains the parameters for renaming a column.
type RenameColumnInput struct {
	ID    string // Column ID
	Title string // New title (required)
}

// RenameColumnOutput contains the result of renaming a column.
type RenameColumnOutput struct {
	Pending  *reconcile.Pending
	Snapshot domain.Snapshot
}

// RenameColumn changes a column title.
type RenameColumn struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewRenameColumn creates a new RenameColumn use case.
func NewRenameColumn(model *board.Model, gateway Submitter, logger domain.Logger) *RenameColumn {
	return &RenameColumn{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute renames the column locally and submits it.
func (uc *RenameColumn) Execute(ctx context.Context, in RenameColumnInput) (*RenameColumnOutput, error) {
	title, err := domain.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	snap, err := uc.model.RenameColumn(in.ID, title)
	if err != nil {
		return nil, fmt.Errorf("rename column: %w", err)
	}
	p := uc.gateway.Submit(ctx, reconcile.RenameColumnMutation(in.ID, title))
	uc.logger.Info(string(domain.ColumnScope(in.ID)), "column", fmt.Sprintf("renamed: %q", title))
	return &RenameColumnOutput{Snapshot: snap, Pending: p}, nil
}

// DeleteColumnInput contains the parameters for deleting a column.
type DeleteColumnInput struct {
	ID string // Column ID
}

// DeleteColumnOutput contains the result of deleting a column.
type DeleteColumnOutput struct {
	Pending      *reconcile.Pending
	Snapshot     domain.Snapshot
	RemovedTasks int // tasks deleted along with the column
}

// DeleteColumn removes a column and all of its tasks.
type DeleteColumn struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewDeleteColumn creates a new DeleteColumn use case.
func NewDeleteColumn(model *board.Model, gateway Submitter, logger domain.Logger) *DeleteColumn {
	return &DeleteColumn{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute deletes the column locally and submits it.
func (uc *DeleteColumn) Execute(ctx context.Context, in DeleteColumnInput) (*DeleteColumnOutput, error) {
	removed := len(uc.model.TaskIDs(in.ID))
	snap, err := uc.model.DeleteColumn(in.ID)
	if err != nil {
		return nil, fmt.Errorf("delete column: %w", err)
	}
	p := uc.gateway.Submit(ctx, reconcile.DeleteColumnMutation(in.ID))
	uc.logger.Info(string(domain.ColumnScope(in.ID)), "column", fmt.Sprintf("deleted with %d task(s)", removed))
	return &DeleteColumnOutput{Snapshot: snap, RemovedTasks: removed, Pending: p}, nil
}

// MoveColumnInput contains the parameters for moving a column.
type MoveColumnInput struct {
	ID    string // Column ID
	Index int    // Target position, zero-based
}

// MoveColumnOutput contains the result of moving a column.
type MoveColumnOutput struct {
	Pending  *reconcile.Pending // nil when the column was already there
	Snapshot domain.Snapshot
}

// MoveColumn changes a column's position.
type MoveColumn struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewMoveColumn creates a new MoveColumn use case.
func NewMoveColumn(model *board.Model, gateway Submitter, logger domain.Logger) *MoveColumn {
	return &MoveColumn{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute moves the column locally and submits the new column order.
func (uc *MoveColumn) Execute(ctx context.Context, in MoveColumnInput) (*MoveColumnOutput, error) {
	if slices.Index(uc.model.ColumnIDs(), in.ID) == in.Index {
		return &MoveColumnOutput{Snapshot: uc.model.Snapshot()}, nil
	}
	snap, err := uc.model.MoveColumn(in.ID, in.Index)
	if err != nil {
		return nil, fmt.Errorf("move column: %w", err)
	}
	p := uc.gateway.Submit(ctx, reconcile.ReorderColumnsMutation(snap.Columns))
	uc.logger.Info(string(domain.ColumnsScope), "column", fmt.Sprintf("moved %s to %d", in.ID, in.Index))
	return &MoveColumnOutput{Snapshot: snap, Pending: p}, nil
}
