package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hyperjump/docread/internal/cli"
	"github.com/hyperjump/docread/internal/extract"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newExtractCmd(g *globalFlags) *cobra.Command {
	var (
		outputFormat string
		jobs         int
		preview      int
	)
	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract text from one or more documents",
		Long: "Extract prints the text of each path. With a single path and text output the\n" +
			"text is written as-is; otherwise each result gets a header. The exit status is 1\n" +
			"when any path fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFormat)
			if err != nil {
				return err
			}
			a, err := setup(g, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ex := newExtractor(a.cfg, a.logger)
			results := extractAll(cmd.Context(), ex, args, jobs)
			failed := 0
			for _, r := range results {
				if !r.OK() {
					failed++
					a.logger.Warn("extraction failed",
						zap.String("path", r.Path),
						zap.String("kind", string(r.Kind)),
						zap.String("error", r.Message))
				}
			}
			if preview > 0 {
				cli.Truncate(results, preview)
			}
			if err := cli.WriteResults(cmd.OutOrStdout(), results, format); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			if failed > 0 {
				return errFailures
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of files extracted in parallel")
	cmd.Flags().IntVar(&preview, "preview", 0, "truncate each text to this many characters (0 = full text)")
	return cmd
}

// resultExtractor is the part of *extract.Extractor used for batch runs.
type resultExtractor interface {
	ExtractResult(ctx context.Context, path string) extract.Result
}

// extractAll extracts paths with at most jobs running at once. Results keep the order of paths.
func extractAll(ctx context.Context, ex resultExtractor, paths []string, jobs int) []extract.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs < 1 {
		jobs = 1
	}
	results := make([]extract.Result, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = ex.ExtractResult(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
