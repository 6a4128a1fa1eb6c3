package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// Snapshot is the combination of all columns and all tasks at a point in time.
type Snapshot struct {
	Columns []Column `json:"columns" yaml:"columns"`
	Tasks   []Task   `json:"tasks" yaml:"tasks"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Columns: slices.Clone(s.Columns),
		Tasks:   slices.Clone(s.Tasks),
	}
}

// ColumnByID returns the column with the given ID.
func (s Snapshot) ColumnByID(id string) (Column, bool) {
	for _, c := range s.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// TaskByID returns the task with the given ID.
func (s Snapshot) TaskByID(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// SortedColumns returns the columns ordered by order index.
func (s Snapshot) SortedColumns() []Column {
	cols := slices.Clone(s.Columns)
	slices.SortStableFunc(cols, compareColumns)
	return cols
}

// TasksIn returns the tasks of a column ordered by order index.
func (s Snapshot) TasksIn(columnID string) []Task {
	var tasks []Task
	for _, t := range s.Tasks {
		if t.ColumnID == columnID {
			tasks = append(tasks, t)
		}
	}
	slices.SortStableFunc(tasks, compareTasks)
	return tasks
}

// Validate checks the board invariants (membership, dense indices, unique IDs) and returns an error wrapping
// ErrInvariantViolation describing the first violation found.
func (s Snapshot) Validate() error {
	columns := make(map[string]bool, len(s.Columns))
	colIndices := make([]int, 0, len(s.Columns))
	for _, c := range s.Columns {
		if columns[c.ID] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvariantViolation, c.ID)
		}
		columns[c.ID] = true
		colIndices = append(colIndices, c.OrderIndex)
	}
	if !isPermutation(colIndices) {
		return fmt.Errorf("%w: column order indices %v are not dense", ErrInvariantViolation, colIndices)
	}

	seen := make(map[string]bool, len(s.Tasks))
	perColumn := make(map[string][]int)
	for _, t := range s.Tasks {
		if seen[t.ID] {
			return fmt.Errorf("%w: task %q appears more than once", ErrInvariantViolation, t.ID)
		}
		seen[t.ID] = true
		if !columns[t.ColumnID] {
			return fmt.Errorf("%w: task %q references missing column %q", ErrInvariantViolation, t.ID, t.ColumnID)
		}
		perColumn[t.ColumnID] = append(perColumn[t.ColumnID], t.OrderIndex)
	}
	for colID, indices := range perColumn {
		if !isPermutation(indices) {
			return fmt.Errorf("%w: task order indices %v in column %q are not dense", ErrInvariantViolation, indices, colID)
		}
	}
	return nil
}

// Normalize returns a copy of s with columns and tasks sorted by
// (order index, id) and re-densified, and tasks referencing unknown columns
// removed. The number of removed tasks is returned alongside.
// Duplicate IDs cannot be repaired and yield ErrDuplicateID.
func Normalize(s Snapshot) (Snapshot, int, error) {
	cols := slices.Clone(s.Columns)
	slices.SortStableFunc(cols, compareColumns)

	known := make(map[string]bool, len(cols))
	for i := range cols {
		if known[cols[i].ID] {
			return Snapshot{}, 0, fmt.Errorf("%w: column %q", ErrDuplicateID, cols[i].ID)
		}
		known[cols[i].ID] = true
		cols[i].OrderIndex = i
	}

	seen := make(map[string]bool, len(s.Tasks))
	byColumn := make(map[string][]Task, len(cols))
	dropped := 0
	for _, t := range s.Tasks {
		if seen[t.ID] {
			return Snapshot{}, 0, fmt.Errorf("%w: task %q", ErrDuplicateID, t.ID)
		}
		if known[t.ID] {
			return Snapshot{}, 0, fmt.Errorf("%w: task %q shares a column id", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true
		if !known[t.ColumnID] {
			dropped++
			continue
		}
		byColumn[t.ColumnID] = append(byColumn[t.ColumnID], t)
	}

	tasks := make([]Task, 0, len(s.Tasks)-dropped)
	for _, c := range cols {
		group := byColumn[c.ID]
		slices.SortStableFunc(group, compareTasks)
		for i := range group {
			group[i].OrderIndex = i
		}
		tasks = append(tasks, group...)
	}

	return Snapshot{Columns: cols, Tasks: tasks}, dropped, nil
}

func compareColumns(a, b Column) int {
	if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func compareTasks(a, b Task) int {
	if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// isPermutation reports whether indices is a permutation of 0..n-1.
func isPermutation(indices []int) bool {
	present := make([]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(indices) || present[i] {
			return false
		}
		present[i] = true
	}
	return true
}
