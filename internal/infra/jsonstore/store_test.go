package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/runoshun/board/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "board.json"))
	if _, err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return store
}

func TestStore_Initialize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "board.json")

	store := New(path)

	// Initialize should create the file
	created, err := store.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !created {
		t.Error("Initialize() created = false, want true")
	}

	// File should exist
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}

	// Initialize again should be idempotent
	created, err = store.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize() second call error = %v", err)
	}
	if created {
		t.Error("Initialize() second call created = true, want false")
	}
}

func TestStore_NotInitialized(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "board.json"))

	err := store.View(context.Background(), func(*domain.Snapshot) error { return nil })
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("View() error = %v, want ErrNotInitialized", err)
	}
}

func TestStore_UpdateAndView(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := store.Update(ctx, func(s *domain.Snapshot) error {
		s.Columns = append(s.Columns, domain.Column{ID: "todo", Title: "Todo", Color: "#fff", CreatedAt: now})
		s.Tasks = append(s.Tasks, domain.Task{ID: "t1", Title: "One", ColumnID: "todo"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var got domain.Snapshot
	if err := store.View(ctx, func(s *domain.Snapshot) error {
		got = s.Clone()
		return nil
	}); err != nil {
		t.Fatalf("View() error = %v", err)
	}

	if len(got.Columns) != 1 || got.Columns[0].Title != "Todo" {
		t.Fatalf("columns = %+v", got.Columns)
	}
	if !got.Columns[0].CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.Columns[0].CreatedAt, now)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ColumnID != "todo" {
		t.Errorf("tasks = %+v", got.Tasks)
	}

	rev, err := store.Revision()
	if err != nil {
		t.Fatalf("Revision() error = %v", err)
	}
	if rev != 1 {
		t.Errorf("Revision() = %d, want 1", rev)
	}
}

func TestStore_UpdateErrorDiscardsChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(s *domain.Snapshot) error {
		s.Columns = append(s.Columns, domain.Column{ID: "x"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	_ = store.View(ctx, func(s *domain.Snapshot) error {
		if len(s.Columns) != 0 {
			t.Errorf("columns = %+v, want none", s.Columns)
		}
		return nil
	})
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, func(s *domain.Snapshot) error {
				s.Columns = append(s.Columns, domain.Column{ID: time.Now().String()})
				return nil
			})
		}()
	}
	wg.Wait()

	rev, err := store.Revision()
	if err != nil {
		t.Fatalf("Revision() error = %v", err)
	}
	if rev != 20 {
		t.Errorf("Revision() = %d, want 20", rev)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := store.View(context.Background(), func(*domain.Snapshot) error { return nil })
	if err == nil {
		t.Error("View() error = nil, want parse error")
	}
}
