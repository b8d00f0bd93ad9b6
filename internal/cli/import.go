package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/worksgraph/internal/app"
	"github.com/yungbote/worksgraph/internal/ingest"
)

type ImportOptions struct {
	*RootOptions
	File   string
	DryRun bool
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import --file <catalog.csv>",
		Short: "Load a CSV catalog into the graph",
		Long: `Normalize every row of a CSV catalog and merge it into the works graph.

Rows that fail validation or persistence are reported and skipped. The exit
code is non-zero only when the batch cannot run at all (unreadable file,
missing Title column, unreachable store).

Example:
  worksgraph import --file movies.csv
  worksgraph import --file movies.csv --dry-run --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to the CSV catalog (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "normalize rows and report without writing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, opts *ImportOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	im, err := app.NewImporter(ctx, cfg, opts.DryRun)
	if err != nil {
		return err
	}
	defer im.Close()

	rep, err := im.RunFile(ctx, opts.File)
	if err != nil {
		return err
	}
	return writeReport(out, opts.Format, rep)
}

func writeReport(out io.Writer, format string, rep ingest.Report) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintf(out, "rows: %d  succeeded: %d  failed: %d\n", rep.Total, rep.Succeeded, len(rep.Failed))
	fmt.Fprintf(out, "nodes created: %d  relationships created: %d\n", rep.NodesCreated, rep.RelationshipsCreated)
	for _, f := range rep.Failed {
		fmt.Fprintf(out, "  %s: %s\n", f.Identifier, f.Reason)
	}
	return nil
}
