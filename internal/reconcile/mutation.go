package reconcile

import (
	"context"
	"slices"

	"github.com/runoshun/board/internal/domain"
)

// Op names a remote operation.
type Op string

// Remote operations.
const (
	OpFetchBoard     Op = "fetch_board"
	OpCreateColumn   Op = "create_column"
	OpRenameColumn   Op = "rename_column"
	OpDeleteColumn   Op = "delete_column"
	OpReorderColumns Op = "reorder_columns"
	OpCreateTask     Op = "create_task"
	OpUpdateTask     Op = "update_task"
	OpMoveTask       Op = "move_task"
	OpReorderTasks   Op = "reorder_tasks"
	OpDeleteTask     Op = "delete_task"
)

// Result is what a successful remote call returned.
type Result struct {
	Task     *domain.Task
	Column   *domain.Column
	Snapshot *domain.Snapshot
}

// Mutation is one remote call plus the scopes whose order it affects.
// Build mutations with the constructors below.
type Mutation struct {
	call      func(ctx context.Context, api domain.BoardAPI) (Result, error)
	Op        Op
	Scopes    []domain.Scope
	exclusive bool // waits for every earlier mutation; stale once anything newer is submitted
}

// FetchBoardMutation refetches the whole board and replaces the model with it.
func FetchBoardMutation() Mutation {
	return Mutation{
		Op:        OpFetchBoard,
		exclusive: true,
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			s, err := api.FetchBoard(ctx)
			return Result{Snapshot: s}, err
		},
	}
}

// CreateColumnMutation creates a column.
func CreateColumnMutation(id, title string) Mutation {
	return Mutation{
		Op:     OpCreateColumn,
		Scopes: []domain.Scope{domain.ColumnScope(id), domain.ColumnsScope},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			c, err := api.CreateColumn(ctx, id, title)
			return Result{Column: c}, err
		},
	}
}

// RenameColumnMutation renames a column.
func RenameColumnMutation(id, title string) Mutation {
	return Mutation{
		Op:     OpRenameColumn,
		Scopes: []domain.Scope{domain.ColumnScope(id)},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			c, err := api.RenameColumn(ctx, id, title)
			return Result{Column: c}, err
		},
	}
}

// DeleteColumnMutation deletes a column and its tasks.
func DeleteColumnMutation(id string) Mutation {
	return Mutation{
		Op:     OpDeleteColumn,
		Scopes: []domain.Scope{domain.ColumnScope(id), domain.ColumnsScope},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			return Result{}, api.DeleteColumn(ctx, id)
		},
	}
}

// ReorderColumnsMutation stores the final column order.
func ReorderColumnsMutation(columns []domain.Column) Mutation {
	columns = slices.Clone(columns)
	return Mutation{
		Op:     OpReorderColumns,
		Scopes: []domain.Scope{domain.ColumnsScope},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			return Result{}, api.ReorderColumns(ctx, columns)
		},
	}
}

// CreateTaskMutation creates a task.
func CreateTaskMutation(in domain.CreateTaskRequest) Mutation {
	return Mutation{
		Op:     OpCreateTask,
		Scopes: []domain.Scope{domain.TaskScope(in.ID), domain.ColumnScope(in.ColumnID)},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			t, err := api.CreateTask(ctx, in)
			return Result{Task: t}, err
		},
	}
}

// UpdateTaskMutation changes a task title and description.
func UpdateTaskMutation(id, title, description string) Mutation {
	return Mutation{
		Op:     OpUpdateTask,
		Scopes: []domain.Scope{domain.TaskScope(id)},
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			t, err := api.UpdateTask(ctx, id, title, description)
			return Result{Task: t}, err
		},
	}
}

// MoveTaskMutation moves a task from one column to another.
func MoveTaskMutation(taskID, fromColumnID, toColumnID string) Mutation {
	return Mutation{
		Op: OpMoveTask,
		Scopes: scopes(domain.TaskScope(taskID),
			domain.ColumnScope(fromColumnID), domain.ColumnScope(toColumnID)),
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			return Result{}, api.MoveTask(ctx, taskID, toColumnID)
		},
	}
}

// ReorderTasksMutation stores the final order of tasks. Every column the
// tasks belong to is a scope of the mutation.
func ReorderTasksMutation(tasks []domain.Task) Mutation {
	tasks = slices.Clone(tasks)
	var ss []domain.Scope
	for _, t := range tasks {
		ss = append(ss, domain.ColumnScope(t.ColumnID))
	}
	return Mutation{
		Op:     OpReorderTasks,
		Scopes: scopes(ss...),
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			return Result{}, api.ReorderTasks(ctx, tasks)
		},
	}
}

// DeleteTaskMutation deletes a task from a column.
func DeleteTaskMutation(id, columnID string) Mutation {
	return Mutation{
		Op:     OpDeleteTask,
		Scopes: scopes(domain.TaskScope(id), domain.ColumnScope(columnID)),
		call: func(ctx context.Context, api domain.BoardAPI) (Result, error) {
			return Result{}, api.DeleteTask(ctx, id)
		},
	}
}

// scopes removes duplicates while keeping the first occurrence order.
func scopes(in ...domain.Scope) []domain.Scope {
	out := make([]domain.Scope, 0, len(in))
	for _, s := range in {
		if s == domain.ColumnScope("") || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
