package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Watch directories and keep extracted text in the output directory",
		Long: "Watch extracts every supported file under the given directories (or the configured\n" +
			"watch.directories) into the output directory, then keeps it in sync: changed files are\n" +
			"re-extracted and deleted files have their text removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(g, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			if outputDir != "" {
				a.cfg.Watch.OutputDir = outputDir
			}
			dirs := args
			if len(dirs) == 0 {
				dirs = a.cfg.Watch.Directories
			}
			if len(dirs) == 0 {
				return fmt.Errorf("no directories to watch: pass them as arguments or set watch.directories")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w, pipeline, err := startWatch(ctx, a, newExtractor(a.cfg, a.logger), dirs)
			if err != nil {
				return err
			}
			defer w.Stop()
			<-ctx.Done()
			s := pipeline.Stats()
			a.logger.Info("watch stopped",
				zap.Int64("extracted", s.Extracted),
				zap.Int64("failed", s.Failed),
				zap.Int64("removed", s.Removed))
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for extracted text (overrides config)")
	return cmd
}
