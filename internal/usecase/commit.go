// Package usecase contains the application use cases.
package usecase

import (
	"context"

	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/drag"
	"github.com/runoshun/board/internal/reconcile"
)

// Submitter issues mutations to the remote store.
// *reconcile.Gateway implements it.
type Submitter interface {
	Submit(ctx context.Context, m reconcile.Mutation) *reconcile.Pending
}

// submitCommit issues the remote mutations for a finalized ordering decision:
// a move (only when the task changed column) followed by the reorder of every
// affected column, or the reorder of all columns.
func submitCommit(ctx context.Context, gw Submitter, c *drag.Commit) []*reconcile.Pending {
	if c == nil {
		return nil
	}
	switch c.Kind {
	case domain.KindTask:
		var pending []*reconcile.Pending
		if c.ColumnChanged() {
			pending = append(pending, gw.Submit(ctx, reconcile.MoveTaskMutation(c.TaskID, c.FromColumn, c.ToColumn)))
		}
		if len(c.Tasks) > 0 {
			pending = append(pending, gw.Submit(ctx, reconcile.ReorderTasksMutation(c.Tasks)))
		}
		return pending
	case domain.KindColumn:
		return []*reconcile.Pending{gw.Submit(ctx, reconcile.ReorderColumnsMutation(c.Columns))}
	default:
		return nil
	}
}

// WaitAll waits for every pending mutation and returns the first failure.
func WaitAll(ctx context.Context, pending ...*reconcile.Pending) error {
	var first error
	for _, p := range pending {
		if p == nil {
			continue
		}
		if _, err := p.Wait(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func orNop(l domain.Logger) domain.Logger {
	if l == nil {
		return domain.NopLogger{}
	}
	return l
}
