package domain

import "time"

// SeedBoard returns the starter board written by 'board init --seed'.
func SeedBoard(now time.Time) Snapshot {
	return Snapshot{
		Columns: []Column{
			{ID: "todo", Title: "To Do", Color: "#3b82f6", OrderIndex: 0, CreatedAt: now},
			{ID: "in-progress", Title: "In Progress", Color: "#f59e0b", OrderIndex: 1, CreatedAt: now},
			{ID: "done", Title: "Done", Color: "#10b981", OrderIndex: 2, CreatedAt: now},
		},
		Tasks: []Task{
			{ID: "1", Title: "Write design notes", Description: "Outline the data model and invariants", ColumnID: "todo", CreatedAt: now},
			{ID: "2", Title: "Build the prototype", Description: "Wire the board engine to a local store", ColumnID: "in-progress", CreatedAt: now},
			{ID: "3", Title: "Set up CI", Description: "Run tests on every push", ColumnID: "done", CreatedAt: now},
		},
	}
}
