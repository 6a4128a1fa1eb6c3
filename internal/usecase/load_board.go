package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/reconcile"
)

// LoadBoardInput contains the parameters for loading the board.
type LoadBoardInput struct{}

// LoadBoardOutput contains the loaded board.
type LoadBoardOutput struct {
	Snapshot domain.Snapshot
	Dropped  int // tasks ignored because their column does not exist
}

// LoadBoard fetches the board from the remote store into the model.
type LoadBoard struct {
	api    domain.BoardAPI
	model  *board.Model
	logger domain.Logger
}

// NewLoadBoard creates a new LoadBoard use case.
func NewLoadBoard(api domain.BoardAPI, model *board.Model, logger domain.Logger) *LoadBoard {
	return &LoadBoard{api: api, model: model, logger: orNop(logger)}
}

// Execute fetches and installs the board.
func (uc *LoadBoard) Execute(ctx context.Context, _ LoadBoardInput) (*LoadBoardOutput, error) {
	s, err := uc.api.FetchBoard(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	snap, dropped, err := uc.model.Replace(*s)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	if dropped > 0 {
		uc.logger.Warn("", "load", fmt.Sprintf("ignored %d task(s) referencing missing columns", dropped))
	}
	uc.logger.Debug("", "load", fmt.Sprintf("loaded %d column(s), %d task(s)", len(snap.Columns), len(snap.Tasks)))
	return &LoadBoardOutput{Snapshot: snap, Dropped: dropped}, nil
}

// RefreshBoardInput contains the parameters for refreshing the board.
type RefreshBoardInput struct{}

// RefreshBoardOutput contains the handle of the refetch.
type RefreshBoardOutput struct {
	Pending *reconcile.Pending
}

// RefreshBoard refetches the board through the gateway, after every earlier
// mutation has finished. It resynchronizes after a failed mutation.
type RefreshBoard struct {
	gateway Submitter
	logger  domain.Logger
}

// NewRefreshBoard creates a new RefreshBoard use case.
func NewRefreshBoard(gateway Submitter, logger domain.Logger) *RefreshBoard {
	return &RefreshBoard{gateway: gateway, logger: orNop(logger)}
}

// Execute submits the refetch.
func (uc *RefreshBoard) Execute(ctx context.Context, _ RefreshBoardInput) (*RefreshBoardOutput, error) {
	uc.logger.Info("", "refresh", "refetching board")
	return &RefreshBoardOutput{Pending: uc.gateway.Submit(ctx, reconcile.FetchBoardMutation())}, nil
}
