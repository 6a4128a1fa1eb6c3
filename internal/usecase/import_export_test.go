package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/usecase"
)

func TestImportBoard_Execute(t *testing.T) {
	t.Run("adds columns and tasks in document order", func(t *testing.T) {
		e := newEnv(t)
		uc := usecase.NewImportBoard(e.model, e.gateway, e.logger)

		out, err := uc.Execute(context.Background(), usecase.ImportBoardInput{Snapshot: domain.Snapshot{
			Columns: []domain.Column{
				{ID: "later", Title: "Later", OrderIndex: 1},
				{ID: "next", Title: "Next", OrderIndex: 0},
			},
			Tasks: []domain.Task{
				{ID: "n2", Title: "two", ColumnID: "next", OrderIndex: 1},
				{ID: "n1", Title: "one", ColumnID: "next", OrderIndex: 0},
				{ID: "lost", Title: "lost", ColumnID: "nowhere"},
			},
		}})

		require.NoError(t, err)
		assert.Equal(t, 2, out.Columns)
		assert.Equal(t, 2, out.Tasks)
		assert.Equal(t, 1, out.Dropped)
		assert.Equal(t, []string{"todo", "doing", "done", "next", "later"}, e.model.ColumnIDs())
		assert.Equal(t, []string{"n1", "n2"}, e.model.TaskIDs("next"))
		waitAll(t, out.Pending...)
		assert.Len(t, e.api.State().Columns, 5)
		assert.Len(t, e.api.State().Tasks, 4)
	})

	t.Run("rejects collisions without changing anything", func(t *testing.T) {
		e := newEnv(t)
		uc := usecase.NewImportBoard(e.model, e.gateway, nil)
		before := e.model.Snapshot()

		_, err := uc.Execute(context.Background(), usecase.ImportBoardInput{Snapshot: domain.Snapshot{
			Columns: []domain.Column{{ID: "new", Title: "New"}},
			Tasks:   []domain.Task{{ID: "t1", Title: "dup", ColumnID: "new"}},
		}})

		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Equal(t, before, e.model.Snapshot())
	})

	t.Run("rejects invalid titles", func(t *testing.T) {
		e := newEnv(t)
		uc := usecase.NewImportBoard(e.model, e.gateway, nil)

		_, err := uc.Execute(context.Background(), usecase.ImportBoardInput{Snapshot: domain.Snapshot{
			Columns: []domain.Column{{ID: "new", Title: " "}},
		}})

		assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	})
}

func TestExportBoard_Execute(t *testing.T) {
	e := newEnv(t)

	out, err := usecase.NewExportBoard(e.model).Execute(context.Background(), usecase.ExportBoardInput{})

	require.NoError(t, err)
	assert.Equal(t, e.model.Snapshot(), out.Snapshot)
	assert.NoError(t, out.Snapshot.Validate())
}
