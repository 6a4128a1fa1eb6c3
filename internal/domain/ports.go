package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BoardAPI is the remote mutation API the reconciliation gateway talks to.
// Every call either succeeds or fails with an error; failures wrap
// ErrTaskNotFound / ErrColumnNotFound when the target is gone and
// ErrTransport when no definitive outcome is known.
type BoardAPI interface {
	// FetchBoard returns all columns and tasks.
	FetchBoard(ctx context.Context) (*Snapshot, error)

	// ListColumns returns all columns ordered by order index.
	ListColumns(ctx context.Context) ([]Column, error)

	// CreateColumn creates a column with a caller-generated ID.
	CreateColumn(ctx context.Context, id, title string) (*Column, error)

	// RenameColumn changes a column title.
	RenameColumn(ctx context.Context, id, title string) (*Column, error)

	// DeleteColumn removes a column and its tasks.
	DeleteColumn(ctx context.Context, id string) error

	// ReorderColumns stores the final column order.
	ReorderColumns(ctx context.Context, columns []Column) error

	// CreateTask creates a task with a caller-generated ID.
	CreateTask(ctx context.Context, in CreateTaskRequest) (*Task, error)

	// UpdateTask changes a task title and description.
	UpdateTask(ctx context.Context, id, title, description string) (*Task, error)

	// MoveTask changes the column a task belongs to.
	MoveTask(ctx context.Context, taskID, newColumnID string) error

	// ReorderTasks stores the final order and column of the given tasks.
	ReorderTasks(ctx context.Context, tasks []Task) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error
}

// CreateTaskRequest carries the fields of a task creation.
type CreateTaskRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ColumnID    string `json:"columnId"`
}

// SnapshotStore persists a whole board snapshot.
// View runs fn with a read-only snapshot; Update runs fn with a mutable copy
// and persists it when fn returns nil. Implementations serialize Update calls.
type SnapshotStore interface {
	View(ctx context.Context, fn func(*Snapshot) error) error
	Update(ctx context.Context, fn func(*Snapshot) error) error
}

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store if it doesn't exist.
	// Returns true if a new store was created.
	Initialize(ctx context.Context) (bool, error)
}

// Logger writes leveled, categorized log lines.
// scope is the ordering scope the entry refers to ("" for global).
type Logger interface {
	Info(scope, category, msg string)
	Debug(scope, category, msg string)
	Warn(scope, category, msg string)
	Error(scope, category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

// Info discards the entry.
func (NopLogger) Info(_, _, _ string) {}

// Debug discards the entry.
func (NopLogger) Debug(_, _, _ string) {}

// Warn discards the entry.
func (NopLogger) Warn(_, _, _ string) {}

// Error discards the entry.
func (NopLogger) Error(_, _, _ string) {}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (repo + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager writes configuration files.
type ConfigManager interface {
	// InitRepoConfig writes the repository config template.
	InitRepoConfig(cfg *Config) error

	// RepoConfigPath returns the repository config file path.
	RepoConfigPath() string
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// IDGenerator produces collision-resistant identifiers for new entities,
// which the UI references before the remote store confirms them.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDs.
type UUIDGenerator struct{}

// NewID returns a random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
