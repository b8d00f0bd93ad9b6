package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/worksgraph/internal/app"
)

type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filtered views over the works graph",
		Long: `Load a snapshot of every work from the graph and serve it over HTTP.

The snapshot is rebuilt on POST /api/works/reload and, when Redis is
configured, whenever an import announces a change.

Example:
  worksgraph serve
  worksgraph serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}
