package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a board in the current project",
		Long: `Initialize a board for the current project.

This command creates the .board/ directory with:
- config.toml: configuration template (kept when it already exists)
- logs/: directory for log files
and prepares the configured store.

With --seed, an empty store receives a sample board with three columns.
Running init again is harmless.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitBoardUseCase().Execute(cmd.Context(), usecase.InitBoardInput{
				BoardDir: c.Config.BoardDir,
				Seed:     seed,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if c.ConfigManager != nil {
				cfgOut, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{})
				switch {
				case err == nil:
					_, _ = fmt.Fprintf(w, "Created config %s\n", cfgOut.Path)
				case errors.Is(err, domain.ErrConfigExists):
				default:
					return err
				}
			}

			if out.Created {
				_, _ = fmt.Fprintf(w, "Initialized board in %s\n", out.BoardDir)
			} else {
				_, _ = fmt.Fprintf(w, "Board already initialized in %s\n", out.BoardDir)
			}
			if out.Seeded {
				_, _ = fmt.Fprintln(w, "Added sample columns and tasks")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Write a sample board when the store is empty")

	return cmd
}
