package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/reconcile"
)

// CreateTaskInput contains the parameters for creating a task.
type CreateTaskInput struct {
	Title       string // Task title (required)
	Description string // Task description (optional)
	ColumnID    string // Column to append the task to
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Pending  *reconcile.Pending
	Task     domain.Task
	Snapshot domain.Snapshot
}

// CreateTask appends a new task to a column.
type CreateTask struct {
	model   *board.Model
	gateway Submitter
	ids     domain.IDGenerator
	logger  domain.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(model *board.Model, gateway Submitter, ids domain.IDGenerator, logger domain.Logger) *CreateTask {
	return &CreateTask{model: model, gateway: gateway, ids: ids, logger: orNop(logger)}
}

// Execute creates the task locally and submits it.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	title, err := domain.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	task := domain.Task{ID: uc.ids.NewID(), Title: title, Description: in.Description, ColumnID: in.ColumnID}
	snap, err := uc.model.CreateTask(task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	task, _ = uc.model.Task(task.ID)

	p := uc.gateway.Submit(ctx, reconcile.CreateTaskMutation(domain.CreateTaskRequest{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ColumnID:    task.ColumnID,
	}))
	uc.logger.Info(string(domain.TaskScope(task.ID)), "task", fmt.Sprintf("created in %s: %q", task.ColumnID, title))
	return &CreateTaskOutput{Task: task, Snapshot: snap, Pending: p}, nil
}

// UpdateTaskInput contains the parameters for editing a task.
// Nil fields keep their current value.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	ID          string
}

// UpdateTaskOutput contains the result of editing a task.
type UpdateTaskOutput struct {
	Pending  *reconcile.Pending
	Task     domain.Task
	Snapshot domain.Snapshot
}

// UpdateTask changes a task title and description.
type UpdateTask struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewUpdateTask creates a new UpdateTask use case.
func NewUpdateTask(model *board.Model, gateway Submitter, logger domain.Logger) *UpdateTask {
	return &UpdateTask{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute edits the task locally and submits it.
func (uc *UpdateTask) Execute(ctx context.Context, in UpdateTaskInput) (*UpdateTaskOutput, error) {
	current, ok := uc.model.Task(in.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, in.ID)
	}

	title := current.Title
	if in.Title != nil {
		t, err := domain.ValidateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		title = t
	}
	description := current.Description
	if in.Description != nil {
		description = *in.Description
	}

	snap, err := uc.model.UpdateTask(in.ID, title, description)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	task, _ := uc.model.Task(in.ID)

	p := uc.gateway.Submit(ctx, reconcile.UpdateTaskMutation(in.ID, title, description))
	uc.logger.Info(string(domain.TaskScope(in.ID)), "task", fmt.Sprintf("updated: %q", title))
	return &UpdateTaskOutput{Task: task, Snapshot: snap, Pending: p}, nil
}

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	ID string // Task ID to delete
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct {
	Pending  *reconcile.Pending
	Snapshot domain.Snapshot
}

// DeleteTask removes a task.
type DeleteTask struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(model *board.Model, gateway Submitter, logger domain.Logger) *DeleteTask {
	return &DeleteTask{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute deletes the task locally and submits it.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	task, ok := uc.model.Task(in.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, in.ID)
	}
	snap, err := uc.model.DeleteTask(in.ID)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	p := uc.gateway.Submit(ctx, reconcile.DeleteTaskMutation(in.ID, task.ColumnID))
	uc.logger.Info(string(domain.TaskScope(in.ID)), "task", "deleted")
	return &DeleteTaskOutput{Snapshot: snap, Pending: p}, nil
}

// MoveTaskInput contains the parameters for moving a task without a gesture.
type MoveTaskInput struct {
	TaskID   string // Task to move
	ColumnID string // Target column
	Index    int    // Target position; domain.AppendIndex appends
}

// MoveTaskOutput contains the result of moving a task.
type MoveTaskOutput struct {
	Commit   *drag.Commit // nil when the task did not move
	Pending  []*reconcile.Pending
	Snapshot domain.Snapshot
}

// MoveTask moves a task to a column and position, then commits the result
// the same way a drop does.
type MoveTask struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewMoveTask creates a new MoveTask use case.
func NewMoveTask(model *board.Model, gateway Submitter, logger domain.Logger) *MoveTask {
	return &MoveTask{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute moves the task locally and submits the resulting order.
func (uc *MoveTask) Execute(ctx context.Context, in MoveTaskInput) (*MoveTaskOutput, error) {
	before, ok := uc.model.Task(in.TaskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, in.TaskID)
	}
	snap, err := uc.model.MoveTask(in.TaskID, in.ColumnID, in.Index)
	if err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}
	after, _ := uc.model.Task(in.TaskID)
	if after.ColumnID == before.ColumnID && after.OrderIndex == before.OrderIndex {
		return &MoveTaskOutput{Snapshot: snap}, nil
	}

	c := &drag.Commit{
		Kind:       domain.KindTask,
		TaskID:     in.TaskID,
		FromColumn: before.ColumnID,
		ToColumn:   after.ColumnID,
	}
	c.Tasks = uc.model.TasksIn(c.AffectedColumns()...)
	pending := submitCommit(ctx, uc.gateway, c)
	uc.logger.Info(string(domain.TaskScope(in.TaskID)), "task",
		fmt.Sprintf("moved %s[%d] -> %s[%d]", before.ColumnID, before.OrderIndex, after.ColumnID, after.OrderIndex))
	return &MoveTaskOutput{Commit: c, Pending: pending, Snapshot: snap}, nil
}
