package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/docread/internal/extract"
	"github.com/hyperjump/docread/internal/output"
	"github.com/hyperjump/docread/internal/server"
	"github.com/hyperjump/docread/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP extraction API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(g, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ex := newExtractor(a.cfg, a.logger)
			var opts []server.Option
			if watch {
				w, pipeline, err := startWatch(ctx, a, ex, a.cfg.Watch.Directories)
				if err != nil {
					return err
				}
				defer w.Stop()
				opts = append(opts, server.WithWatch(w, a.configPath), server.WithStats(pipeline.Stats))
			}

			srv := server.NewServer(ex, a.cfg, a.logger, opts...)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			a.logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also watch the configured directories")
	return cmd
}

// startWatch starts a watcher over dirs that mirrors extracted text into the configured output directory.
func startWatch(ctx context.Context, a *app, ex output.Extractor, dirs []string) (*watcher.Watcher, *output.Pipeline, error) {
	writer, err := output.NewWriter(a.cfg.Watch.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	pipeline := output.NewPipeline(ctx, ex, writer, a.logger)
	opts := []watcher.Option{
		watcher.WithExtensions(extract.SupportedExtensions()...),
		watcher.WithRecursive(a.cfg.Watch.RecursiveOrDefault()),
		watcher.WithExclude(writer.Dir),
	}
	if a.debug {
		opts = append(opts, watcher.WithLogger(a.logger))
	}
	w := watcher.New(dirs, pipeline, opts...)
	if err := w.Start(ctx); err != nil {
		return nil, nil, err
	}
	a.logger.Info("watching",
		zap.Strings("directories", w.Directories()),
		zap.String("output_dir", writer.Dir))
	go w.SyncExistingFiles()
	return w, pipeline, nil
}
