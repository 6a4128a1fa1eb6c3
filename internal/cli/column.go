package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/usecase"
)

// newColumnCommand creates the column command group.
func newColumnCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "column",
		Aliases: []string{"col"},
		Short:   "Manage columns",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(
		newColumnAddCommand(c),
		newColumnRenameCommand(c),
		newColumnRmCommand(c),
		newColumnMvCommand(c),
	)

	return cmd
}

func newColumnAddCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Append a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.CreateColumnUseCase().Execute(cmd.Context(), usecase.CreateColumnInput{Title: args[0]})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created column %s (%s)\n", out.Column.ID, out.Column.Title)
			return nil
		},
	}
}

func newColumnRenameCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.RenameColumnUseCase().Execute(cmd.Context(), usecase.RenameColumnInput{ID: args[0], Title: args[1]})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed column %s\n", args[0])
			return nil
		},
	}
}

func newColumnRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a column and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.DeleteColumnUseCase().Execute(cmd.Context(), usecase.DeleteColumnInput{ID: args[0]})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted column %s (%d task(s))\n", args[0], out.RemovedTasks)
			return nil
		},
	}
}

func newColumnMvCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <position>",
		Short: "Move a column to a position (1 is leftmost)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.MoveColumnUseCase().Execute(cmd.Context(), usecase.MoveColumnInput{ID: args[0], Index: pos - 1})
			if err != nil {
				return err
			}
			if out.Pending == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Column %s is already at position %d\n", args[0], pos)
				return nil
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved column %s to position %d\n", args[0], pos)
			return nil
		},
	}
}

// parsePosition parses a one-based position.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: must be a positive integer", s)
	}
	return n, nil
}
