// Package view derives the render-ready board from a snapshot.
package view

import (
	"github.com/runoshun/board/internal/domain"
)

// Column is a column with its tasks in display order.
type Column struct {
	Tasks []domain.Task `json:"tasks"`
	domain.Column
}

// Board is the projection consumed by renderers.
// Fields are ordered to minimize memory padding.
type Board struct {
	Columns    []Column
	ActiveTask *domain.Task   // set while a task is dragged
	ActiveCol  *domain.Column // set while a column is dragged
	ActiveID   string
}

// Project groups s by column, sorted by order index, and resolves the
// dragged entity activeID (empty when idle).
func Project(s domain.Snapshot, activeID string) Board {
	cols := s.SortedColumns()
	b := Board{
		Columns:  make([]Column, 0, len(cols)),
		ActiveID: activeID,
	}
	for _, c := range cols {
		b.Columns = append(b.Columns, Column{Column: c, Tasks: s.TasksIn(c.ID)})
	}
	if activeID == "" {
		return b
	}
	if t, ok := s.TaskByID(activeID); ok {
		b.ActiveTask = &t
	} else if c, ok := s.ColumnByID(activeID); ok {
		b.ActiveCol = &c
	}
	return b
}

// Column returns the projected column with the given ID.
func (b Board) Column(id string) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// TaskCount returns the number of tasks on the board.
func (b Board) TaskCount() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}

// Locate returns the column and row of a task, or ok=false.
func (b Board) Locate(taskID string) (col, row int, ok bool) {
	for i, c := range b.Columns {
		for j, t := range c.Tasks {
			if t.ID == taskID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
