// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/runoshun/board/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// SeqIDGenerator returns "id-1", "id-2", ... (or Prefix-N when set).
type SeqIDGenerator struct {
	Prefix string
	n      int
	mu     sync.Mutex
}

// NewID returns the next identifier.
func (g *SeqIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

// Call records one FakeBoardAPI invocation.
// Fields are ordered to minimize memory padding.
type Call struct {
	Tasks    []domain.Task
	Columns  []domain.Column
	Method   string
	ID       string
	Title    string
	ColumnID string
}

// FakeBoardAPI is an in-memory domain.BoardAPI with controllable failures
// and blocking, for exercising the reconciliation gateway.
// Fields are ordered to minimize memory padding.
type FakeBoardAPI struct {
	Errs     map[string]error // method name -> error to return
	blocks   map[string][]chan struct{}
	started  chan string
	Now      time.Time
	Snapshot domain.Snapshot
	calls    []Call
	mu       sync.Mutex
}

// NewFakeBoardAPI creates a FakeBoardAPI serving s.
func NewFakeBoardAPI(s domain.Snapshot) *FakeBoardAPI {
	return &FakeBoardAPI{
		Snapshot: s.Clone(),
		Errs:     make(map[string]error),
		blocks:   make(map[string][]chan struct{}),
		started:  make(chan string, 64),
		Now:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Block makes the next call of method wait until the returned function is
// called (or the call's context ends).
func (f *FakeBoardAPI) Block(method string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.blocks[method] = append(f.blocks[method], ch)
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Started receives the method name of every call as it begins.
func (f *FakeBoardAPI) Started() <-chan string {
	return f.started
}

// SetErr makes every following call of method fail with err (nil clears it).
func (f *FakeBoardAPI) SetErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errs, method)
		return
	}
	f.Errs[method] = err
}

// Calls returns the recorded calls in the order they completed.
func (f *FakeBoardAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Methods returns the method names of the recorded calls.
func (f *FakeBoardAPI) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		names = append(names, c.Method)
	}
	return names
}

// State returns a copy of the served snapshot.
func (f *FakeBoardAPI) State() domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Snapshot.Clone()
}

// enter announces the call, waits on a pending block, and records it.
func (f *FakeBoardAPI) enter(ctx context.Context, c Call) error {
	select {
	case f.started <- c.Method:
	default:
	}

	f.mu.Lock()
	var block chan struct{}
	if q := f.blocks[c.Method]; len(q) > 0 {
		block = q[0]
		f.blocks[c.Method] = q[1:]
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrTransport, ctx.Err())
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.Errs[c.Method]
	f.mu.Unlock()
	return err
}

// FetchBoard returns the served snapshot.
func (f *FakeBoardAPI) FetchBoard(ctx context.Context) (*domain.Snapshot, error) {
	if err := f.enter(ctx, Call{Method: "FetchBoard"}); err != nil {
		return nil, err
	}
	s := f.State()
	return &s, nil
}

// ListColumns returns the served columns.
func (f *FakeBoardAPI) ListColumns(ctx context.Context) ([]domain.Column, error) {
	if err := f.enter(ctx, Call{Method: "ListColumns"}); err != nil {
		return nil, err
	}
	return f.State().SortedColumns(), nil
}

// CreateColumn appends a column.
func (f *FakeBoardAPI) CreateColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	if err := f.enter(ctx, Call{Method: "CreateColumn", ID: id, Title: title}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := domain.Column{ID: id, Title: title, Color: domain.DefaultColumnColor, OrderIndex: len(f.Snapshot.Columns), CreatedAt: f.Now}
	f.Snapshot.Columns = append(f.Snapshot.Columns, c)
	return &c, nil
}

// RenameColumn changes a column title.
func (f *FakeBoardAPI) RenameColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	if err := f.enter(ctx, Call{Method: "RenameColumn", ID: id, Title: title}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Snapshot.Columns {
		if f.Snapshot.Columns[i].ID == id {
			f.Snapshot.Columns[i].Title = title
			c := f.Snapshot.Columns[i]
			return &c, nil
		}
	}
	return nil, domain.ErrColumnNotFound
}

// DeleteColumn removes a column and its tasks.
func (f *FakeBoardAPI) DeleteColumn(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Method: "DeleteColumn", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Snapshot.Columns = slices.DeleteFunc(f.Snapshot.Columns, func(c domain.Column) bool { return c.ID == id })
	f.Snapshot.Tasks = slices.DeleteFunc(f.Snapshot.Tasks, func(t domain.Task) bool { return t.ColumnID == id })
	return nil
}

// ReorderColumns stores column order indices.
func (f *FakeBoardAPI) ReorderColumns(ctx context.Context, columns []domain.Column) error {
	if err := f.enter(ctx, Call{Method: "ReorderColumns", Columns: slices.Clone(columns)}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range columns {
		for i := range f.Snapshot.Columns {
			if f.Snapshot.Columns[i].ID == in.ID {
				f.Snapshot.Columns[i].OrderIndex = in.OrderIndex
			}
		}
	}
	return nil
}

// CreateTask appends a task to its column.
func (f *FakeBoardAPI) CreateTask(ctx context.Context, in domain.CreateTaskRequest) (*domain.Task, error) {
	if err := f.enter(ctx, Call{Method: "CreateTask", ID: in.ID, Title: in.Title, ColumnID: in.ColumnID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Snapshot.ColumnByID(in.ColumnID); !ok {
		return nil, domain.ErrColumnNotFound
	}
	t := domain.Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		ColumnID:    in.ColumnID,
		OrderIndex:  len(f.Snapshot.TasksIn(in.ColumnID)),
		CreatedAt:   f.Now,
	}
	f.Snapshot.Tasks = append(f.Snapshot.Tasks, t)
	return &t, nil
}

// UpdateTask changes a task title and description.
func (f *FakeBoardAPI) UpdateTask(ctx context.Context, id, title, description string) (*domain.Task, error) {
	if err := f.enter(ctx, Call{Method: "UpdateTask", ID: id, Title: title}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Snapshot.Tasks {
		if f.Snapshot.Tasks[i].ID == id {
			f.Snapshot.Tasks[i].Title = title
			f.Snapshot.Tasks[i].Description = description
			t := f.Snapshot.Tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

// MoveTask changes a task's column, appending it there.
func (f *FakeBoardAPI) MoveTask(ctx context.Context, taskID, newColumnID string) error {
	if err := f.enter(ctx, Call{Method: "MoveTask", ID: taskID, ColumnID: newColumnID}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.Snapshot.TasksIn(newColumnID))
	for i := range f.Snapshot.Tasks {
		if f.Snapshot.Tasks[i].ID == taskID {
			f.Snapshot.Tasks[i].ColumnID = newColumnID
			f.Snapshot.Tasks[i].OrderIndex = n
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// ReorderTasks stores task order indices and columns.
func (f *FakeBoardAPI) ReorderTasks(ctx context.Context, tasks []domain.Task) error {
	if err := f.enter(ctx, Call{Method: "ReorderTasks", Tasks: slices.Clone(tasks)}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range tasks {
		for i := range f.Snapshot.Tasks {
			if f.Snapshot.Tasks[i].ID == in.ID {
				f.Snapshot.Tasks[i].ColumnID = in.ColumnID
				f.Snapshot.Tasks[i].OrderIndex = in.OrderIndex
			}
		}
	}
	return nil
}

// DeleteTask removes a task.
func (f *FakeBoardAPI) DeleteTask(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Method: "DeleteTask", ID: id}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Snapshot.Tasks = slices.DeleteFunc(f.Snapshot.Tasks, func(t domain.Task) bool { return t.ID == id })
	return nil
}

// LogEntry is one line captured by RecordingLogger.
type LogEntry struct {
	Level    string
	Scope    string
	Category string
	Msg      string
}

// RecordingLogger is a domain.Logger that keeps every entry.
type RecordingLogger struct {
	entries []LogEntry
	mu      sync.Mutex
}

func (l *RecordingLogger) add(level, scope, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Scope: scope, Category: category, Msg: msg})
}

// Info records an info entry.
func (l *RecordingLogger) Info(scope, category, msg string) { l.add("INFO", scope, category, msg) }

// Debug records a debug entry.
func (l *RecordingLogger) Debug(scope, category, msg string) { l.add("DEBUG", scope, category, msg) }

// Warn records a warning entry.
func (l *RecordingLogger) Warn(scope, category, msg string) { l.add("WARN", scope, category, msg) }

// Error records an error entry.
func (l *RecordingLogger) Error(scope, category, msg string) { l.add("ERROR", scope, category, msg) }

// Entries returns the recorded entries.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// HasCategory reports whether an entry with the given level and category exists.
func (l *RecordingLogger) HasCategory(level, category string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && e.Category == category {
			return true
		}
	}
	return false
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config       *domain.Config
	GlobalConfig *domain.Config
	LoadErr      error
}

// Load returns the configured config or a default one.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// LoadGlobal returns the configured global config or a default one.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.GlobalConfig == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.GlobalConfig, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	Written *domain.Config
	InitErr error
	Path    string
}

// InitRepoConfig records cfg.
func (m *MockConfigManager) InitRepoConfig(cfg *domain.Config) error {
	if m.InitErr != nil {
		return m.InitErr
	}
	m.Written = cfg
	return nil
}

// RepoConfigPath returns the configured path.
func (m *MockConfigManager) RepoConfigPath() string {
	return m.Path
}

// MockStoreInitializer is a test double for domain.StoreInitializer.
type MockStoreInitializer struct {
	InitErr error
	Created bool
	Called  bool
}

// Initialize records the call.
func (m *MockStoreInitializer) Initialize(_ context.Context) (bool, error) {
	m.Called = true
	if m.InitErr != nil {
		return false, m.InitErr
	}
	return m.Created, nil
}
