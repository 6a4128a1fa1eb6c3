package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/board/internal/domain"
)

// InitBoardInput contains the input parameters for InitBoard.
type InitBoardInput struct {
	BoardDir string // Path to .board directory
	Seed     bool   // Write the sample board when the store is empty
}

// InitBoardOutput contains the output from InitBoard.
type InitBoardOutput struct {
	BoardDir string // Path to the board directory
	Created  bool   // True if the store did not exist before
	Seeded   bool   // True if the sample board was written
}

// InitBoard creates the board directory and the store.
type InitBoard struct {
	storeInit domain.StoreInitializer
	store     domain.SnapshotStore // nil for remote backends
	clock     domain.Clock
}

// NewInitBoard creates a new InitBoard use case.
func NewInitBoard(storeInit domain.StoreInitializer, store domain.SnapshotStore, clock domain.Clock) *InitBoard {
	return &InitBoard{storeInit: storeInit, store: store, clock: clock}
}

// Execute initializes the board. Running it again is harmless.
func (uc *InitBoard) Execute(ctx context.Context, in InitBoardInput) (*InitBoardOutput, error) {
	if err := os.MkdirAll(filepath.Join(in.BoardDir, "logs"), 0o750); err != nil {
		return nil, fmt.Errorf("create board directory: %w", err)
	}

	// Remote backends are initialized by the server that owns them.
	var created bool
	if uc.storeInit != nil {
		var err error
		created, err = uc.storeInit.Initialize(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize store: %w", err)
		}
	}

	out := &InitBoardOutput{BoardDir: in.BoardDir, Created: created}
	if !in.Seed {
		return out, nil
	}
	if uc.store == nil {
		return nil, errors.New("seeding requires a local store backend")
	}
	err := uc.store.Update(ctx, func(s *domain.Snapshot) error {
		if len(s.Columns) > 0 {
			return nil
		}
		*s = domain.SeedBoard(uc.clock.Now())
		out.Seeded = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed board: %w", err)
	}
	return out, nil
}
