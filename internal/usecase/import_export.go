package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/board/internal/board"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/reconcile"
)

// ImportBoardInput contains the board document to import.
type ImportBoardInput struct {
	Snapshot domain.Snapshot
}

// ImportBoardOutput contains the result of an import.
type ImportBoardOutput struct {
	Pending  []*reconcile.Pending
	Snapshot domain.Snapshot
	Columns  int // columns created
	Tasks    int // tasks created
	Dropped  int // tasks skipped because their column is not in the document
}

// ImportBoard adds the columns and tasks of a document to the board,
// keeping the document's order. Nothing is changed when any entry is invalid
// or collides with an existing ID.
type ImportBoard struct {
	model   *board.Model
	gateway Submitter
	logger  domain.Logger
}

// NewImportBoard creates a new ImportBoard use case.
func NewImportBoard(model *board.Model, gateway Submitter, logger domain.Logger) *ImportBoard {
	return &ImportBoard{model: model, gateway: gateway, logger: orNop(logger)}
}

// Execute imports the document.
func (uc *ImportBoard) Execute(ctx context.Context, in ImportBoardInput) (*ImportBoardOutput, error) {
	doc, dropped, err := domain.Normalize(in.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	for i := range doc.Columns {
		if err := uc.prepare(&doc.Columns[i].ID, &doc.Columns[i].Title); err != nil {
			return nil, err
		}
	}
	for i := range doc.Tasks {
		if err := uc.prepare(&doc.Tasks[i].ID, &doc.Tasks[i].Title); err != nil {
			return nil, err
		}
	}

	out := &ImportBoardOutput{Dropped: dropped}
	for _, c := range doc.Columns {
		if c.Color == "" {
			c.Color = domain.DefaultColumnColor
		}
		if _, err := uc.model.CreateColumn(c); err != nil {
			return nil, fmt.Errorf("import column %s: %w", c.ID, err)
		}
		out.Pending = append(out.Pending, uc.gateway.Submit(ctx, reconcile.CreateColumnMutation(c.ID, c.Title)))
		out.Columns++
	}
	for _, t := range doc.Tasks {
		if _, err := uc.model.CreateTask(t); err != nil {
			return nil, fmt.Errorf("import task %s: %w", t.ID, err)
		}
		out.Pending = append(out.Pending, uc.gateway.Submit(ctx, reconcile.CreateTaskMutation(domain.CreateTaskRequest{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			ColumnID:    t.ColumnID,
		})))
		out.Tasks++
	}
	out.Snapshot = uc.model.Snapshot()

	uc.logger.Info("", "import", fmt.Sprintf("imported %d column(s), %d task(s)", out.Columns, out.Tasks))
	if dropped > 0 {
		uc.logger.Warn("", "import", fmt.Sprintf("skipped %d task(s) without a column", dropped))
	}
	return out, nil
}

func (uc *ImportBoard) prepare(id, title *string) error {
	if *id == "" {
		return domain.ErrEmptyID
	}
	if uc.model.Kind(*id) != domain.KindNone {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, *id)
	}
	t, err := domain.ValidateTitle(*title)
	if err != nil {
		return fmt.Errorf("%s: %w", *id, err)
	}
	*title = t
	return nil
}

// ExportBoardInput contains the parameters for exporting.
type ExportBoardInput struct{}

// ExportBoardOutput contains the exported board.
type ExportBoardOutput struct {
	Snapshot domain.Snapshot
}

// ExportBoard returns the current board.
type ExportBoard struct {
	model *board.Model
}

// NewExportBoard creates a new ExportBoard use case.
func NewExportBoard(model *board.Model) *ExportBoard {
	return &ExportBoard{model: model}
}

// Execute returns the model's snapshot.
func (uc *ExportBoard) Execute(_ context.Context, _ ExportBoardInput) (*ExportBoardOutput, error) {
	return &ExportBoardOutput{Snapshot: uc.model.Snapshot()}, nil
}
