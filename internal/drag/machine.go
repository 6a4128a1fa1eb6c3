// Package drag implements the drag state machine driving provisional
// reorders while a gesture is in progress.
package drag

import (
	"slices"
	"sync"

	"github.com/runoshun/board/internal/domain"
)

// Board is the part of the ordering model the machine reads and mutates.
// *board.Model satisfies it.
type Board interface {
	Kind(id string) domain.EntityKind
	Task(id string) (domain.Task, bool)
	ColumnIDs() []string
	TasksIn(columnIDs ...string) []domain.Task
	MoveTask(taskID, columnID string, index int) (domain.Snapshot, error)
	MoveColumn(id string, index int) (domain.Snapshot, error)
}

// Session describes the entity being dragged.
type Session struct {
	ID           string
	OriginColumn string // column the task started in; empty for column drags
	Kind         domain.EntityKind
	OriginIndex  int
}

// Commit is the finalized ordering decision produced when a gesture ends.
// Fields are ordered to minimize memory padding.
type Commit struct {
	Tasks      []domain.Task   // final tasks of the affected columns (task drags)
	Columns    []domain.Column // final column order (column drags)
	TaskID     string
	FromColumn string
	ToColumn   string
	ColumnID   string
	Kind       domain.EntityKind
}

// ColumnChanged reports whether a task commit moved the task to another column.
func (c *Commit) ColumnChanged() bool {
	return c.Kind == domain.KindTask && c.FromColumn != c.ToColumn
}

// AffectedColumns returns the columns whose task order the commit changes.
func (c *Commit) AffectedColumns() []string {
	if c.Kind != domain.KindTask {
		return nil
	}
	if c.ColumnChanged() {
		return []string{c.FromColumn, c.ToColumn}
	}
	return []string{c.ToColumn}
}

// Machine tracks the dragged entity: Idle until Start, Dragging until End.
type Machine struct {
	board  Board
	active *Session
	mu     sync.Mutex
}

// NewMachine creates an idle Machine over b.
func NewMachine(b Board) *Machine {
	return &Machine{board: b}
}

// Active returns the session in progress, if any. Renderers use it to draw
// the overlay of the dragged entity.
func (m *Machine) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// Start begins dragging id.
func (m *Machine) Start(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return Session{}, domain.ErrAlreadyDragging
	}

	s := Session{ID: id, Kind: m.board.Kind(id)}
	switch s.Kind {
	case domain.KindTask:
		task, _ := m.board.Task(id)
		s.OriginColumn = task.ColumnID
		s.OriginIndex = task.OrderIndex
	case domain.KindColumn:
	default:
		return Session{}, domain.ErrUnknownEntity
	}
	m.active = &s
	return s, nil
}

// Over handles the pointer hovering overID and applies the provisional
// reorder it implies. It reports whether the board changed.
//
// Task over task moves the dragged task into the hovered task's slot;
// task over column appends it to that column. Column drags are not applied
// while hovering; they are computed once in End.
func (m *Machine) Over(overID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || overID == "" || overID == m.active.ID {
		return false, nil
	}
	if m.active.Kind != domain.KindTask {
		return false, nil
	}

	dragged, ok := m.board.Task(m.active.ID)
	if !ok {
		// Removed mid-gesture (e.g. refetch); nothing to move.
		return false, nil
	}

	switch m.board.Kind(overID) {
	case domain.KindTask:
		target, _ := m.board.Task(overID)
		if target.ColumnID == dragged.ColumnID && target.OrderIndex == dragged.OrderIndex {
			return false, nil
		}
		if _, err := m.board.MoveTask(dragged.ID, target.ColumnID, target.OrderIndex); err != nil {
			return false, err
		}
		return true, nil
	case domain.KindColumn:
		if dragged.ColumnID == overID {
			return false, nil
		}
		if _, err := m.board.MoveTask(dragged.ID, overID, domain.AppendIndex); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}

// End finishes the gesture over overID (empty when dropped outside any
// target) and returns the commit to reconcile, or nil when nothing changed.
// The machine always returns to Idle. A task drag keeps whatever provisional
// arrangement is in the board; nothing is rolled back.
func (m *Machine) End(overID string) (*Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	m.active = nil
	if s == nil {
		return nil, nil
	}

	switch s.Kind {
	case domain.KindTask:
		return m.endTask(s)
	case domain.KindColumn:
		return m.endColumn(s, overID)
	default:
		return nil, nil
	}
}

// Cancel ends the gesture without a drop target.
func (m *Machine) Cancel() (*Commit, error) {
	return m.End("")
}

func (m *Machine) endTask(s *Session) (*Commit, error) {
	task, ok := m.board.Task(s.ID)
	if !ok || (task.ColumnID == s.OriginColumn && task.OrderIndex == s.OriginIndex) {
		return nil, nil
	}
	c := &Commit{
		Kind:       domain.KindTask,
		TaskID:     s.ID,
		FromColumn: s.OriginColumn,
		ToColumn:   task.ColumnID,
	}
	c.Tasks = m.board.TasksIn(c.AffectedColumns()...)
	return c, nil
}

func (m *Machine) endColumn(s *Session, overID string) (*Commit, error) {
	if overID == "" || overID == s.ID || m.board.Kind(overID) != domain.KindColumn {
		return nil, nil
	}
	cols := m.board.ColumnIDs()
	to := slices.Index(cols, overID)
	if to < 0 || slices.Index(cols, s.ID) < 0 {
		return nil, nil
	}
	snap, err := m.board.MoveColumn(s.ID, to)
	if err != nil {
		return nil, err
	}
	return &Commit{
		Kind:     domain.KindColumn,
		ColumnID: s.ID,
		Columns:  snap.Columns,
	}, nil
}
