// Package board holds the in-memory ordering model of a board.
//
// Model is the single writer of board state. The drag state machine and the
// reconciliation gateway only call its entry points, so the board invariants
// (membership, dense indices, cascade delete) are enforced in one place:
// order indices are never stored, they are derived from list positions
// whenever a Snapshot is produced.
package board

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/runoshun/board/internal/domain"
)

var errGenerationChanged = errors.New("board changed locally")

// Model is the authoritative in-memory copy of a board.
// Fields are ordered to minimize memory padding.
type Model struct {
	columns     map[string]domain.Column
	tasks       map[string]domain.Task
	subscribers map[int]func(domain.Snapshot)
	layout      domain.Layout
	nextSub     int
	generation  uint64 // bumped by every local change; Replace and Apply* leave it
	mu          sync.RWMutex
}

// New creates an empty Model.
func New() *Model {
	return &Model{
		columns:     make(map[string]domain.Column),
		tasks:       make(map[string]domain.Task),
		subscribers: make(map[int]func(domain.Snapshot)),
		layout:      domain.NewLayout(),
	}
}

// NewFromSnapshot creates a Model loaded with s.
func NewFromSnapshot(s domain.Snapshot) (*Model, error) {
	m := New()
	if _, _, err := m.Replace(s); err != nil {
		return nil, err
	}
	return m, nil
}

// Subscribe registers fn to be called with the new snapshot after every
// successful mutation. The returned function unregisters it.
//
// Notifications are delivered outside the lock, so with concurrent writers a
// callback may see an older snapshot after a newer one. Callers that need the
// current board should compare Generation or re-read the model.
func (m *Model) Subscribe(fn func(domain.Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Generation returns a counter that changes whenever the board is changed
// locally. Loading or merging store responses does not change it.
func (m *Model) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Snapshot returns the current board with dense order indices.
func (m *Model) Snapshot() domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Column returns a column by ID with its current order index.
func (m *Model) Column(id string) (domain.Column, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.columns[id]
	if !ok {
		return domain.Column{}, false
	}
	c.OrderIndex = slices.Index(m.layout.Columns, id)
	return c, true
}

// Task returns a task by ID with its current column and order index.
func (m *Model) Task(id string) (domain.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	t.OrderIndex = slices.Index(m.layout.Tasks[t.ColumnID], id)
	return t, true
}

// Kind reports whether id names a task, a column, or nothing.
func (m *Model) Kind(id string) domain.EntityKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tasks[id]; ok {
		return domain.KindTask
	}
	if _, ok := m.columns[id]; ok {
		return domain.KindColumn
	}
	return domain.KindNone
}

// ColumnIDs returns the column IDs in display order.
func (m *Model) ColumnIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.layout.Columns)
}

// TaskIDs returns the task IDs of a column in display order.
func (m *Model) TaskIDs(columnID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.layout.Tasks[columnID])
}

// TasksIn returns the tasks of the given columns, in column then task order.
func (m *Model) TasksIn(columnIDs ...string) []domain.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Task
	for _, colID := range columnIDs {
		for i, id := range m.layout.Tasks[colID] {
			t := m.tasks[id]
			t.OrderIndex = i
			out = append(out, t)
		}
	}
	return out
}

// Replace loads s as the new board. The input is normalized first; tasks
// referencing unknown columns are dropped and their count returned.
func (m *Model) Replace(s domain.Snapshot) (domain.Snapshot, int, error) {
	norm, dropped, err := domain.Normalize(s)
	if err != nil {
		return domain.Snapshot{}, 0, err
	}

	var out domain.Snapshot
	err = m.merge(func() error {
		m.load(norm)
		return nil
	}, &out)
	return out, dropped, err
}

// ReplaceIfUnchanged loads s like Replace, but only while Generation still
// equals gen. It reports false, leaving the board as it is, when a local
// change happened in between.
func (m *Model) ReplaceIfUnchanged(s domain.Snapshot, gen uint64) (domain.Snapshot, int, bool, error) {
	norm, dropped, err := domain.Normalize(s)
	if err != nil {
		return domain.Snapshot{}, 0, false, err
	}

	var out domain.Snapshot
	err = m.merge(func() error {
		if m.generation != gen {
			return errGenerationChanged
		}
		m.load(norm)
		return nil
	}, &out)
	if errors.Is(err, errGenerationChanged) {
		return domain.Snapshot{}, 0, false, nil
	}
	return out, dropped, err == nil, err
}

func (m *Model) load(norm domain.Snapshot) {
	m.columns = make(map[string]domain.Column, len(norm.Columns))
	m.tasks = make(map[string]domain.Task, len(norm.Tasks))
	m.layout = domain.LayoutOf(norm)
	for _, c := range norm.Columns {
		m.columns[c.ID] = c
	}
	for _, t := range norm.Tasks {
		m.tasks[t.ID] = t
	}
}

// CreateColumn appends a column at the end of the board.
func (m *Model) CreateColumn(c domain.Column) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		if c.ID == "" {
			return domain.ErrEmptyID
		}
		if m.exists(c.ID) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, c.ID)
		}
		m.columns[c.ID] = c
		m.layout.Columns = append(m.layout.Columns, c.ID)
		m.layout.Tasks[c.ID] = nil
		return nil
	}, &out)
	return out, err
}

// CreateTask appends a task at the end of its column.
func (m *Model) CreateTask(t domain.Task) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		if t.ID == "" {
			return domain.ErrEmptyID
		}
		if m.exists(t.ID) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, t.ID)
		}
		if _, ok := m.columns[t.ColumnID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, t.ColumnID)
		}
		m.tasks[t.ID] = t
		m.layout.Tasks[t.ColumnID] = append(m.layout.Tasks[t.ColumnID], t.ID)
		return nil
	}, &out)
	return out, err
}

// RenameColumn changes a column title.
func (m *Model) RenameColumn(id, title string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		c, ok := m.columns[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, id)
		}
		c.Title = title
		m.columns[id] = c
		return nil
	}, &out)
	return out, err
}

// UpdateTask changes a task title and description.
func (m *Model) UpdateTask(id, title, description string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		t, ok := m.tasks[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		t.Title = title
		t.Description = description
		m.tasks[id] = t
		return nil
	}, &out)
	return out, err
}

// DeleteTask removes a task; the remaining tasks of its column close the gap.
func (m *Model) DeleteTask(id string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		t, ok := m.tasks[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		delete(m.tasks, id)
		ids := m.layout.Tasks[t.ColumnID]
		if i := slices.Index(ids, id); i >= 0 {
			m.layout.Tasks[t.ColumnID] = slices.Delete(ids, i, i+1)
		}
		return nil
	}, &out)
	return out, err
}

// DeleteColumn removes a column and every task in it.
func (m *Model) DeleteColumn(id string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		if _, ok := m.columns[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, id)
		}
		for _, taskID := range m.layout.Tasks[id] {
			delete(m.tasks, taskID)
		}
		delete(m.layout.Tasks, id)
		delete(m.columns, id)
		if i := slices.Index(m.layout.Columns, id); i >= 0 {
			m.layout.Columns = slices.Delete(m.layout.Columns, i, i+1)
		}
		return nil
	}, &out)
	return out, err
}

// MoveTask moves a task into columnID at index. A negative or past-the-end
// index appends.
func (m *Model) MoveTask(taskID, columnID string, index int) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		layout, err := domain.MoveAcrossScope(m.layout, taskID, columnID, index)
		if err != nil {
			return err
		}
		t := m.tasks[taskID]
		t.ColumnID = columnID
		m.tasks[taskID] = t
		m.layout = layout
		return nil
	}, &out)
	return out, err
}

// MoveColumn moves a column to index.
func (m *Model) MoveColumn(id string, index int) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		from := slices.Index(m.layout.Columns, id)
		if from < 0 {
			return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, id)
		}
		cols, err := domain.MoveWithinScope(m.layout.Columns, from, index)
		if err != nil {
			return err
		}
		m.layout.Columns = cols
		return nil
	}, &out)
	return out, err
}

// ReorderTasks sets the task order of a column. ids must be a permutation of
// the column's current tasks.
func (m *Model) ReorderTasks(columnID string, ids []string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		current, ok := m.layout.Tasks[columnID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrColumnNotFound, columnID)
		}
		order, err := domain.Reorder(current, ids)
		if err != nil {
			return err
		}
		m.layout.Tasks[columnID] = order
		return nil
	}, &out)
	return out, err
}

// ReorderColumns sets the column order. ids must be a permutation of the
// current columns.
func (m *Model) ReorderColumns(ids []string) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.mutate(func() error {
		order, err := domain.Reorder(m.layout.Columns, ids)
		if err != nil {
			return err
		}
		m.layout.Columns = order
		return nil
	}, &out)
	return out, err
}

// ApplyTask merges server-returned task fields. Membership and order stay as
// they are locally; a task no longer present is ignored.
func (m *Model) ApplyTask(t domain.Task) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.merge(func() error {
		cur, ok := m.tasks[t.ID]
		if !ok {
			return nil
		}
		cur.Title = t.Title
		cur.Description = t.Description
		if !t.CreatedAt.IsZero() {
			cur.CreatedAt = t.CreatedAt
		}
		m.tasks[t.ID] = cur
		return nil
	}, &out)
	return out, err
}

// ApplyColumn merges server-returned column fields without touching order.
func (m *Model) ApplyColumn(c domain.Column) (domain.Snapshot, error) {
	var out domain.Snapshot
	err := m.merge(func() error {
		cur, ok := m.columns[c.ID]
		if !ok {
			return nil
		}
		cur.Title = c.Title
		if c.Color != "" {
			cur.Color = c.Color
		}
		if !c.CreatedAt.IsZero() {
			cur.CreatedAt = c.CreatedAt
		}
		m.columns[c.ID] = cur
		return nil
	}, &out)
	return out, err
}

// mutate applies a local change.
func (m *Model) mutate(fn func() error, out *domain.Snapshot) error {
	return m.write(true, fn, out)
}

// merge applies state that came from the store.
func (m *Model) merge(fn func() error, out *domain.Snapshot) error {
	return m.write(false, fn, out)
}

// write runs fn under the write lock, stores the resulting snapshot in out
// and notifies subscribers outside the lock.
func (m *Model) write(local bool, fn func() error, out *domain.Snapshot) error {
	m.mu.Lock()
	if err := fn(); err != nil {
		m.mu.Unlock()
		return err
	}
	if local {
		m.generation++
	}
	snap := m.snapshotLocked()
	subs := make([]func(domain.Snapshot), 0, len(m.subscribers))
	for _, id := range sortedKeys(m.subscribers) {
		subs = append(subs, m.subscribers[id])
	}
	m.mu.Unlock()

	*out = snap
	for _, fn := range subs {
		fn(snap.Clone())
	}
	return nil
}

func (m *Model) exists(id string) bool {
	_, isTask := m.tasks[id]
	_, isColumn := m.columns[id]
	return isTask || isColumn
}

func (m *Model) snapshotLocked() domain.Snapshot {
	s := domain.Snapshot{
		Columns: make([]domain.Column, 0, len(m.layout.Columns)),
		Tasks:   make([]domain.Task, 0, len(m.tasks)),
	}
	for i, colID := range m.layout.Columns {
		c := m.columns[colID]
		c.OrderIndex = i
		s.Columns = append(s.Columns, c)
		for j, taskID := range m.layout.Tasks[colID] {
			t := m.tasks[taskID]
			t.OrderIndex = j
			s.Tasks = append(s.Tasks, t)
		}
	}
	return s
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
