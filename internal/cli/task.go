package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/usecase"
)

// newTaskCommand creates the task command group.
func newTaskCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(
		newTaskAddCommand(c),
		newTaskShowCommand(c),
		newTaskEditCommand(c),
		newTaskRmCommand(c),
		newTaskMvCommand(c),
	)

	return cmd
}

// newTaskAddCommand creates the task add subcommand.
func newTaskAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Column      string
		Description string
	}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a task to a column",
		Long: `Append a task to the bottom of a column.

Examples:
  # Add to the leftmost column
  board task add "Write the design notes"

  # Add to a given column with a description
  board task add "Fix login" --column doing --body "Happens on Safari only"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}

			columnID := opts.Column
			if columnID == "" {
				ids := c.Model.ColumnIDs()
				if len(ids) == 0 {
					return errors.New("the board has no columns; add one with 'board column add <title>'")
				}
				columnID = ids[0]
			}

			out, err := c.CreateTaskUseCase().Execute(cmd.Context(), usecase.CreateTaskInput{
				Title:       args[0],
				Description: opts.Description,
				ColumnID:    columnID,
			})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s\n", out.Task.ID, out.Task.ColumnID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Column, "column", "c", "", "Column ID (default: leftmost column)")
	cmd.Flags().StringVar(&opts.Description, "body", "", "Task description")

	return cmd
}

// newTaskShowCommand creates the task show subcommand.
func newTaskShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			task, ok := c.Model.Task(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, args[0])
			}
			col, _ := c.Model.Column(task.ColumnID)

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%s: %s\n\n", task.ID, task.Title)
			_, _ = fmt.Fprintf(w, "Column: %s (%s)\n", col.Title, col.ID)
			_, _ = fmt.Fprintf(w, "Position: %d\n", task.OrderIndex+1)
			if !task.CreatedAt.IsZero() {
				_, _ = fmt.Fprintf(w, "Created: %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
			}
			if task.Description != "" {
				_, _ = fmt.Fprintf(w, "\n%s\n", task.Description)
			}
			return nil
		},
	}
}

// newTaskEditCommand creates the task edit subcommand.
func newTaskEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
	}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.UpdateTaskInput{ID: args[0]}
			if cmd.Flags().Changed("title") {
				in.Title = &opts.Title
			}
			if cmd.Flags().Changed("body") {
				in.Description = &opts.Description
			}
			if in.Title == nil && in.Description == nil {
				return errors.New("nothing to change: pass --title and/or --body")
			}

			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.UpdateTaskUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", out.Task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "New title")
	cmd.Flags().StringVar(&opts.Description, "body", "", "New description (empty clears it)")

	return cmd
}

// newTaskRmCommand creates the task rm subcommand.
func newTaskRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.DeleteTaskUseCase().Execute(cmd.Context(), usecase.DeleteTaskInput{ID: args[0]})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
			return nil
		},
	}
}

// newTaskMvCommand creates the task mv subcommand.
func newTaskMvCommand(c *app.Container) *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "mv <id> <column>",
		Short: "Move a task to a column",
		Long: `Move a task to a column, at the bottom or at a given position.

Examples:
  board task mv t1 done
  board task mv t1 doing --position 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := domain.AppendIndex
			if cmd.Flags().Changed("position") {
				if position < 1 {
					return fmt.Errorf("invalid position %d: must be a positive integer", position)
				}
				index = position - 1
			}

			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.MoveTaskUseCase().Execute(cmd.Context(), usecase.MoveTaskInput{
				TaskID:   args[0],
				ColumnID: args[1],
				Index:    index,
			})
			if err != nil {
				return err
			}
			if out.Commit == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s did not move\n", args[0])
				return nil
			}
			if err := syncPending(cmd.Context(), out.Pending...); err != nil {
				return err
			}
			task, _ := c.Model.Task(args[0])
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to %s at position %d\n", task.ID, task.ColumnID, task.OrderIndex+1)
			return nil
		},
	}

	cmd.Flags().IntVarP(&position, "position", "p", 0, "Position in the column, 1 is the top (default: bottom)")

	return cmd
}
