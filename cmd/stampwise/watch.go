package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jodrm/stampwise/internal/config"
	"github.com/jodrm/stampwise/internal/logging"
	"github.com/jodrm/stampwise/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(configPath *string, synthetic *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch [watch] directories from the config for new or changed PDFs and stamp them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Watch.InputDir == "" {
				return fmt.Errorf("[watch].input_dir must be set in config for watch mode")
			}
			if cfg.Watch.OutputDir == "" {
				return fmt.Errorf("[watch].output_dir must be set in config for watch mode")
			}

			logger := logging.New("watch")
			p, err := newPipeline(cfg, logger, *synthetic)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch.Run(ctx, watch.Config{
				InputDir:     cfg.Watch.InputDir,
				PollInterval: cfg.Watch.PollDuration(),
				Logger:       logger,
				Process: func(path string) error {
					rel, err := filepath.Rel(cfg.Watch.InputDir, path)
					if err != nil {
						rel = filepath.Base(path)
					}
					out := filepath.Join(cfg.Watch.OutputDir, rel)
					return stampSingleFile(ctx, p, path, out, 0)
				},
			})
		},
	}
}
