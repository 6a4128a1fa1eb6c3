// Package cli provides the command-line interface for board.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/reconcile"
	"github.com/runoshun/board/internal/usecase"
)

// Command group IDs.
const (
	groupSetup  = "setup"
	groupBoard  = "board"
	groupColumn = "column"
	groupTask   = "task"
)

// NewRootCommand creates the root command for board.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "board",
		Short: "Kanban board with optimistic ordering",
		Long: `board manages a kanban board of columns and tasks.

Every change is applied to the local board first and then sent to the
configured store (a JSON file, a git ref, redis, sqlite or a remote
board server). Running board without arguments opens the interactive TUI.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "init" || c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return launchTUIFunc(cmd.Context(), c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupBoard, Title: "Board Commands:"},
		&cobra.Group{ID: groupColumn, Title: "Column Management:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupSetup

	// Board commands
	showCmd := newShowCommand(c)
	showCmd.GroupID = groupBoard

	importCmd := newImportCommand(c)
	importCmd.GroupID = groupBoard

	exportCmd := newExportCommand(c)
	exportCmd.GroupID = groupBoard

	historyCmd := newHistoryCommand(c)
	historyCmd.GroupID = groupBoard

	tuiCmd := newTUICommand(c)
	tuiCmd.GroupID = groupBoard

	// Column and task commands
	columnCmd := newColumnCommand(c)
	columnCmd.GroupID = groupColumn

	taskCmd := newTaskCommand(c)
	taskCmd.GroupID = groupTask

	root.AddCommand(
		initCmd,
		configCmd,
		serveCmd,
		showCmd,
		importCmd,
		exportCmd,
		historyCmd,
		tuiCmd,
		columnCmd,
		taskCmd,
	)

	return root
}

// loadBoard fetches the board into the container's model.
func loadBoard(ctx context.Context, c *app.Container) error {
	out, err := c.LoadBoardUseCase().Execute(ctx, usecase.LoadBoardInput{})
	if err != nil {
		return err
	}
	if out.Dropped > 0 {
		c.Logger.Warn("ignored tasks referencing missing columns", "count", out.Dropped)
	}
	return nil
}

// syncPending waits until the store has acknowledged every pending mutation.
func syncPending(ctx context.Context, pending ...*reconcile.Pending) error {
	if err := usecase.WaitAll(ctx, pending...); err != nil {
		return fmt.Errorf("sync with store: %w", err)
	}
	return nil
}

func backendName(c *app.Container) string {
	if c.AppConfig == nil || c.AppConfig.Store.Backend == "" {
		return domain.BackendJSON
	}
	return c.AppConfig.Store.Backend
}
