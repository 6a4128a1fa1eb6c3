package domain

import (
	"fmt"
	"slices"
)

// AppendIndex asks MoveAcrossScope to place the task at the end of the target column.
const AppendIndex = -1

// Layout is the ordering skeleton of a board: the column order and the task
// order of every column. A task ID appears in exactly one column list.
type Layout struct {
	Tasks   map[string][]string
	Columns []string
}

// NewLayout returns an empty layout.
func NewLayout() Layout {
	return Layout{Tasks: make(map[string][]string)}
}

// LayoutOf derives the layout of a snapshot, ordering by order index.
func LayoutOf(s Snapshot) Layout {
	l := NewLayout()
	for _, c := range s.SortedColumns() {
		l.Columns = append(l.Columns, c.ID)
		ids := []string{}
		for _, t := range s.TasksIn(c.ID) {
			ids = append(ids, t.ID)
		}
		l.Tasks[c.ID] = ids
	}
	return l
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	out := Layout{
		Columns: slices.Clone(l.Columns),
		Tasks:   make(map[string][]string, len(l.Tasks)),
	}
	for k, v := range l.Tasks {
		out.Tasks[k] = slices.Clone(v)
	}
	return out
}

// Locate returns the column and index of a task.
func (l Layout) Locate(taskID string) (columnID string, index int, ok bool) {
	for _, colID := range l.Columns {
		if i := slices.Index(l.Tasks[colID], taskID); i >= 0 {
			return colID, i, true
		}
	}
	return "", 0, false
}

// HasColumn reports whether the layout contains the column.
func (l Layout) HasColumn(columnID string) bool {
	return slices.Contains(l.Columns, columnID)
}

// MoveWithinScope removes the element at from and inserts it at to.
// The input is not modified. from == to returns an unchanged copy.
func MoveWithinScope[T any](seq []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(seq) {
		return nil, fmt.Errorf("%w: from %d (len %d)", ErrIndexOutOfRange, from, len(seq))
	}
	if to < 0 || to >= len(seq) {
		return nil, fmt.Errorf("%w: to %d (len %d)", ErrIndexOutOfRange, to, len(seq))
	}
	out := slices.Clone(seq)
	if from == to {
		return out, nil
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item), nil
}

// MoveAcrossScope removes a task from its current column and inserts it into
// targetColumnID at targetIndex. A negative or past-the-end index appends.
// When the target is the task's own column, the index is interpreted against
// the list with the task already removed, which gives insert-before semantics
// relative to the element currently at targetIndex.
func MoveAcrossScope(l Layout, taskID, targetColumnID string, targetIndex int) (Layout, error) {
	if !l.HasColumn(targetColumnID) {
		return Layout{}, fmt.Errorf("%w: %s", ErrColumnNotFound, targetColumnID)
	}
	fromCol, fromIdx, ok := l.Locate(taskID)
	if !ok {
		return Layout{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	out := l.Clone()
	out.Tasks[fromCol] = slices.Delete(out.Tasks[fromCol], fromIdx, fromIdx+1)

	target := out.Tasks[targetColumnID]
	if targetIndex < 0 || targetIndex > len(target) {
		targetIndex = len(target)
	}
	out.Tasks[targetColumnID] = slices.Insert(target, targetIndex, taskID)
	return out, nil
}

// Reorder returns ids arranged in the order given by order, which must be a
// permutation of ids.
func Reorder(ids, order []string) ([]string, error) {
	if len(ids) != len(order) {
		return nil, fmt.Errorf("%w: got %d ids, want %d", ErrNotPermutation, len(order), len(ids))
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, id := range order {
		if !want[id] {
			return nil, fmt.Errorf("%w: unexpected or repeated id %q", ErrNotPermutation, id)
		}
		delete(want, id)
	}
	return slices.Clone(order), nil
}
