package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgeline-labs/forgeline/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Dir        string
	Extensions []string
	Debounce   time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run check-default on source changes",
		Long: `Watch the project tree and re-run the default static-analysis pass after
each change, for fast local iteration. A failing check keeps the watcher
alive; it reports and waits for the next change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			dir := opts.Dir
			if dir == "" {
				dir = cmdCtx.Cfg.ProjectRoot
			}

			runCheck := func(ctx context.Context) {
				if err := cmdCtx.Engine.CheckDefault(ctx); err != nil {
					cmdCtx.Renderer.Error(err.Error())
					return
				}
				cmdCtx.Renderer.Success("check passed")
			}

			cmdCtx.Logger.Info("watching for changes",
				slog.String("dir", dir), slog.Any("extensions", opts.Extensions))

			eg, egctx := errgroup.WithContext(cmd.Context())

			// Initial pass so the operator sees current state immediately.
			eg.Go(func() error {
				runCheck(egctx)
				return nil
			})

			eg.Go(func() error {
				w := &watch.Watcher{
					Dir:        dir,
					Extensions: opts.Extensions,
					Debounce:   opts.Debounce,
					Logger:     cmdCtx.Logger,
				}
				return w.Run(egctx, runCheck)
			})

			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Directory to watch (default: project root)")
	cmd.Flags().StringSliceVar(&opts.Extensions, "ext", []string{".rs", ".toml"},
		"File extensions that trigger a re-run")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce,
		"Delay before re-running after a change burst")

	return cmd
}
