//go:build windows

package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/breeze-rmm/dailywall/internal/state"
)

// sessionEnv is empty: schtasks /IT already runs the task in the
// interactive session.
func sessionEnv() []string { return nil }

// Install creates (or replaces, /F) the scheduled task s.Task.
func (s *Scheduler) Install(tc state.TimeConfig) error {
	args, err := SchtasksArgs(tc, s.Task, s.Command)
	if err != nil {
		return err
	}
	if out, err := s.run(context.Background(), nil, "schtasks", args...); err != nil {
		return fmt.Errorf("schtasks /create: %w: %s", err, strings.TrimSpace(string(out)))
	}
	log.Info("scheduled task installed", "task", s.Task, "preset", tc.Preset, "interval", tc.Interval)
	return nil
}

// Remove deletes the scheduled task s.Task.
func (s *Scheduler) Remove() error {
	out, err := s.run(context.Background(), nil, "schtasks", "/delete", "/tn", s.Task, "/f")
	if err != nil {
		if strings.Contains(strings.ToLower(string(out)), "cannot find") {
			return nil
		}
		return fmt.Errorf("schtasks /delete: %w: %s", err, strings.TrimSpace(string(out)))
	}
	log.Info("scheduled task removed", "task", s.Task)
	return nil
}
