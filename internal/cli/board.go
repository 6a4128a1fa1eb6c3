package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/runoshun/board/internal/app"
	"github.com/runoshun/board/internal/domain"
	"github.com/runoshun/board/internal/infra/boardfile"
	"github.com/runoshun/board/internal/infra/gitstore"
	"github.com/runoshun/board/internal/usecase"
	"github.com/runoshun/board/internal/view"
)

// Output formats.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

// newShowCommand creates the show command for printing the board.
func newShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Format string
	}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the board",
		Long: `Show every column with its tasks in display order.

Examples:
  board show
  board show --format json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.ShowBoardUseCase().Execute(cmd.Context(), usecase.ShowBoardInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch opts.Format {
			case formatJSON:
				return writeJSON(w, out.Board.Columns)
			case formatText, "":
				printBoard(w, out.Board)
				return nil
			default:
				return fmt.Errorf("unknown format %q (use text or json)", opts.Format)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatText, "Output format: text or json")

	return cmd
}

// printBoard writes one block per column.
func printBoard(w io.Writer, b view.Board) {
	if len(b.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "No columns. Add one with 'board column add <title>'.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range b.Columns {
		if i > 0 {
			_, _ = fmt.Fprintln(tw)
		}
		_, _ = fmt.Fprintf(tw, "%s (%d)\t[%s]\n", col.Title, len(col.Tasks), col.ID)
		for _, t := range col.Tasks {
			_, _ = fmt.Fprintf(tw, "  %d. %s\t[%s]\n", t.OrderIndex+1, t.Title, t.ID)
		}
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// newImportCommand creates the import command.
func newImportCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add columns and tasks from a YAML board file",
		Long: `Add the columns and tasks of a YAML board file to the board.

Entries keep the order they have in the file. Entries without an id get a
fresh one. Nothing is imported when an id already exists on the board.

File format:
  columns:
    - title: To Do
      tasks:
        - title: Write the design notes
          description: Optional details
    - id: done
      title: Done

Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				snap domain.Snapshot
				err  error
			)
			if args[0] == "-" {
				snap, err = boardfile.Decode(cmd.InOrStdin(), c.IDs)
			} else {
				snap, err = boardfile.ReadFile(args[0], c.IDs)
			}
			if err != nil {
				return err
			}

			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.ImportBoardUseCase().Execute(cmd.Context(), usecase.ImportBoardInput{Snapshot: snap})
			if err != nil {
				return err
			}
			if err := syncPending(cmd.Context(), out.Pending...); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d column(s) and %d task(s)\n", out.Columns, out.Tasks)
			if out.Dropped > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %d task(s) without a column\n", out.Dropped)
			}
			return nil
		},
	}
}

// newExportCommand creates the export command.
func newExportCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Format string
		Output string
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board as a YAML or JSON document",
		Long: `Write the board as a document that 'board import' accepts (YAML)
or as the raw snapshot (JSON).

Examples:
  board export > board.yaml
  board export --format json -o board.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadBoard(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.ExportBoardUseCase().Execute(cmd.Context(), usecase.ExportBoardInput{})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.Output != "" && opts.Output != "-" {
				if opts.Format == formatYAML {
					return boardfile.WriteFile(opts.Output, out.Snapshot)
				}
				f, err := os.Create(opts.Output)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.Output, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			switch opts.Format {
			case formatYAML:
				return boardfile.Encode(w, out.Snapshot)
			case formatJSON:
				return writeJSON(w, out.Snapshot)
			default:
				return fmt.Errorf("unknown format %q (use yaml or json)", opts.Format)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatYAML, "Output format: yaml or json")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// newHistoryCommand creates the history command.
func newHistoryCommand(c *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List board revisions (git backend)",
		Long: `List the revisions recorded by the git store, newest first.

Only available with store.backend = "git".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, ok := c.Store.(*gitstore.Store)
			if !ok {
				return fmt.Errorf("history requires the git backend (current: %s)", backendName(c))
			}
			revs, err := store.History(limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range revs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", shortHash(r.Hash), r.When, strings.TrimSpace(r.Message))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of revisions (0 for all)")

	return cmd
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Long: `Serve the configured store as a JSON HTTP API under /api.

Other board instances can use it with:
  [store]
  backend = "http"
  remote_url = "http://<host>:8000/api"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.AppConfig.Server.Addr
			}
			if addr == "" {
				addr = domain.DefaultServerAddr
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving board on %s\n", addr)
			return serveFunc(cmd.Context(), c, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from [server] addr)")

	return cmd
}

// serveFunc is a function variable for running the server, allowing it to be mocked in tests.
var serveFunc = func(ctx context.Context, c *app.Container, addr string) error {
	return c.Server().Run(ctx, addr)
}
