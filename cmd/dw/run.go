package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/dailywall/internal/cycle"
	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/schedule"
)

var log = logging.L("main")

func (a *app) runCmd() *cobra.Command {
	var syncEvery time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cycle wallpapers in the foreground instead of through the OS scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.LogFile != "" {
				rw, err := logging.NewRotatingWriter(a.cfg.LogFile, a.cfg.LogMaxSizeMB, a.cfg.LogMaxBackups)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer rw.Close()
				logging.Init(a.cfg.LogFormat, a.cfg.LogLevel, io.MultiWriter(os.Stderr, rw))
			}

			mgr, err := a.manager(false)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if syncEvery > 0 {
				go syncLoop(ctx, mgr, syncEvery)
			}

			log.Info("starting dw", "version", version, "state", a.cfg.StateFile)
			return schedule.NewRunner(mgr).Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&syncEvery, "sync-interval", 0, "also refresh remote collections this often (0 disables)")
	return cmd
}

func syncLoop(ctx context.Context, mgr *cycle.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mgr.Sync(ctx); err != nil {
				log.Warn("remote sync failed", logging.KeyError, err)
			}
		}
	}
}
