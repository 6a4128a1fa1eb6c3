package domain

import "strings"

// Scope names the sibling set a mutation affects: a single task, a single
// column (its title and its task order), or the whole column order.
type Scope string

// ColumnsScope is the whole-board column order.
const ColumnsScope Scope = "columns"

// TaskScope returns the scope of a single task.
func TaskScope(id string) Scope {
	return Scope("task:" + id)
}

// ColumnScope returns the scope of a column and its task order.
func ColumnScope(id string) Scope {
	return Scope("column:" + id)
}

// ID returns the entity ID embedded in the scope, or "" for ColumnsScope.
func (s Scope) ID() string {
	if _, id, ok := strings.Cut(string(s), ":"); ok {
		return id
	}
	return ""
}
