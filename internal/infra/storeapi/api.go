// Package storeapi implements the remote board API on top of a SnapshotStore.
// It is what the HTTP server exposes, and what the CLI talks to directly when
// the store is local.
package storeapi

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
)

// API is a domain.BoardAPI backed by a SnapshotStore.
type API struct {
	store domain.SnapshotStore
	clock domain.Clock
}

// New creates an API over store. A nil clock uses the system clock.
func New(store domain.SnapshotStore, clock domain.Clock) *API {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &API{store: store, clock: clock}
}

// FetchBoard returns the whole board with dense order indices.
func (a *API) FetchBoard(ctx context.Context) (*domain.Snapshot, error) {
	var out domain.Snapshot
	err := a.store.View(ctx, func(s *domain.Snapshot) error {
		norm, _, err := domain.Normalize(*s)
		if err != nil {
			return err
		}
		out = norm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListColumns returns all columns ordered by order index.
func (a *API) ListColumns(ctx context.Context) ([]domain.Column, error) {
	s, err := a.FetchBoard(ctx)
	if err != nil {
		return nil, err
	}
	return s.Columns, nil
}

// CreateColumn appends a new column.
func (a *API) CreateColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	title, err := domain.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	var out domain.Column
	err = a.update(ctx, func(m *board.Model) error {
		c := domain.Column{
			ID:        id,
			Title:     title,
			Color:     domain.DefaultColumnColor,
			CreatedAt: a.clock.Now().UTC(),
		}
		if _, err := m.CreateColumn(c); err != nil {
			return err
		}
		out, _ = m.Column(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameColumn changes a column title.
func (a *API) RenameColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	title, err := domain.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	var out domain.Column
	err = a.update(ctx, func(m *board.Model) error {
		if _, err := m.RenameColumn(id, title); err != nil {
			return err
		}
		out, _ = m.Column(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteColumn removes a column and its tasks.
func (a *API) DeleteColumn(ctx context.Context, id string) error {
	return a.update(ctx, func(m *board.Model) error {
		_, err := m.DeleteColumn(id)
		return err
	})
}

// ReorderColumns orders columns by the submitted order indices. Columns not
// mentioned keep their relative order after the mentioned ones.
func (a *API) ReorderColumns(ctx context.Context, columns []domain.Column) error {
	submitted := slices.Clone(columns)
	slices.SortStableFunc(submitted, func(x, y domain.Column) int {
		return cmp.Compare(x.OrderIndex, y.OrderIndex)
	})
	ids := make([]string, 0, len(submitted))
	for _, c := range submitted {
		ids = append(ids, c.ID)
	}

	return a.update(ctx, func(m *board.Model) error {
		for _, id := range ids {
			if m.Kind(id) != domain.KindColumn {
				return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, id)
			}
		}
		_, err := m.ReorderColumns(completeOrder(ids, m.ColumnIDs()))
		return err
	})
}

// CreateTask appends a new task to its column.
func (a *API) CreateTask(ctx context.Context, in domain.CreateTaskRequest) (*domain.Task, error) {
	title, err := domain.ValidateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	var out domain.Task
	err = a.update(ctx, func(m *board.Model) error {
		t := domain.Task{
			ID:          in.ID,
			Title:       title,
			Description: in.Description,
			ColumnID:    in.ColumnID,
			CreatedAt:   a.clock.Now().UTC(),
		}
		if _, err := m.CreateTask(t); err != nil {
			return err
		}
		out, _ = m.Task(in.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask changes a task title and description.
func (a *API) UpdateTask(ctx context.Context, id, title, description string) (*domain.Task, error) {
	title, err := domain.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	var out domain.Task
	err = a.update(ctx, func(m *board.Model) error {
		if _, err := m.UpdateTask(id, title, description); err != nil {
			return err
		}
		out, _ = m.Task(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveTask appends a task to the end of newColumnID. Moving a task to the
// column it is already in leaves it in place.
func (a *API) MoveTask(ctx context.Context, taskID, newColumnID string) error {
	return a.update(ctx, func(m *board.Model) error {
		return moveTask(m, taskID, newColumnID)
	})
}

// ReorderTasks groups the submitted tasks by column_id and orders each group
// by its order indices. Tasks submitted under another column are moved there
// first. Tasks of an affected column that were not submitted keep their
// relative order after the submitted ones.
func (a *API) ReorderTasks(ctx context.Context, tasks []domain.Task) error {
	var columns []string
	groups := make(map[string][]domain.Task)
	for _, t := range tasks {
		if _, ok := groups[t.ColumnID]; !ok {
			columns = append(columns, t.ColumnID)
		}
		groups[t.ColumnID] = append(groups[t.ColumnID], t)
	}

	return a.update(ctx, func(m *board.Model) error {
		for _, colID := range columns {
			for _, t := range groups[colID] {
				if err := moveTask(m, t.ID, colID); err != nil {
					return err
				}
			}
		}
		for _, colID := range columns {
			group := groups[colID]
			slices.SortStableFunc(group, func(x, y domain.Task) int {
				return cmp.Compare(x.OrderIndex, y.OrderIndex)
			})
			ids := make([]string, 0, len(group))
			for _, t := range group {
				ids = append(ids, t.ID)
			}
			if _, err := m.ReorderTasks(colID, completeOrder(ids, m.TaskIDs(colID))); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTask removes a task.
func (a *API) DeleteTask(ctx context.Context, id string) error {
	return a.update(ctx, func(m *board.Model) error {
		_, err := m.DeleteTask(id)
		return err
	})
}

// update loads the stored board into a Model, runs fn, and stores the result.
func (a *API) update(ctx context.Context, fn func(*board.Model) error) error {
	return a.store.Update(ctx, func(s *domain.Snapshot) error {
		m, err := board.NewFromSnapshot(*s)
		if err != nil {
			return fmt.Errorf("load board: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
		*s = m.Snapshot()
		return nil
	})
}

func moveTask(m *board.Model, taskID, columnID string) error {
	t, ok := m.Task(taskID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	if m.Kind(columnID) != domain.KindColumn {
		return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, columnID)
	}
	if t.ColumnID == columnID {
		return nil
	}
	_, err := m.MoveTask(taskID, columnID, domain.AppendIndex)
	return err
}

// completeOrder returns the distinct ids of first that are in current,
// followed by the rest of current in its existing order.
func completeOrder(first, current []string) []string {
	member := make(map[string]bool, len(current))
	for _, id := range current {
		member[id] = true
	}
	out := make([]string, 0, len(current))
	placed := make(map[string]bool, len(current))
	for _, id := range first {
		if member[id] && !placed[id] {
			out = append(out, id)
			placed[id] = true
		}
	}
	for _, id := range current {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

var _ domain.BoardAPI = (*API)(nil)
