// Package domain contains core board entities, ordering rules and ports.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title accepted for columns and tasks.
const MaxTitleLength = 200

// DefaultColumnColor is the color assigned to columns created without one.
const DefaultColumnColor = "#6b7280"

// Column is a named, ordered bucket containing tasks.
// Fields are ordered to minimize memory padding.
type Column struct {
	CreatedAt  time.Time `json:"created_at" yaml:"created_at,omitempty"`
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Color      string    `json:"color,omitempty" yaml:"color,omitempty"`
	OrderIndex int       `json:"order_index" yaml:"order_index"`
}

// Task is a unit of work belonging to exactly one column.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt   time.Time `json:"created_at" yaml:"created_at,omitempty"`
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	ColumnID    string    `json:"column_id" yaml:"column_id"`
	OrderIndex  int       `json:"order_index" yaml:"order_index"`
}

// EntityKind distinguishes what a drag gesture or lookup refers to.
type EntityKind int

// Entity kinds.
const (
	KindNone EntityKind = iota
	KindTask
	KindColumn
)

// String returns the lowercase name of the kind.
func (k EntityKind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindColumn:
		return "column"
	default:
		return "none"
	}
}

// ValidateTitle rejects empty, whitespace-only and over-long titles.
// It returns the trimmed title on success.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return trimmed, nil
}
