//go:build !windows

package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/breeze-rmm/dailywall/internal/state"
)

// sessionVars are copied into the crontab entry when set at install time.
var sessionVars = []string{"DISPLAY", "WAYLAND_DISPLAY", "XDG_RUNTIME_DIR", "XDG_CURRENT_DESKTOP"}

// sessionEnv captures the session environment cron jobs do not get. Without
// a bus address gsettings, dconf and xfconf-query cannot reach the desktop.
func sessionEnv() []string {
	var env []string
	bus := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if bus == "" {
		dir := os.Getenv("XDG_RUNTIME_DIR")
		if dir == "" {
			dir = "/run/user/" + strconv.Itoa(os.Getuid())
		}
		if sock := filepath.Join(dir, "bus"); fileExists(sock) {
			bus = "unix:path=" + sock
		}
	}
	if bus != "" {
		env = append(env, "DBUS_SESSION_BUS_ADDRESS="+bus)
	}
	for _, k := range sessionVars {
		if v := os.Getenv(k); v != "" {
			env = append(env, k+"="+v)
		}
	}
	return env
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Install writes (or replaces) the crontab entry for s.Task.
func (s *Scheduler) Install(tc state.TimeConfig) error {
	line, err := CronLine(tc, withEnv(s.env(), s.Command))
	if err != nil {
		return err
	}
	current, err := s.readCrontab()
	if err != nil {
		return err
	}
	if err := s.writeCrontab(withCronEntry(current, s.Task, line)); err != nil {
		return err
	}
	log.Info("crontab entry installed", "task", s.Task, "line", line)
	return nil
}

// Remove deletes the crontab entry for s.Task. A missing entry is not an
// error.
func (s *Scheduler) Remove() error {
	current, err := s.readCrontab()
	if err != nil {
		return err
	}
	updated, found := withoutCronEntry(current, s.Task)
	if !found {
		log.Debug("no crontab entry to remove", "task", s.Task)
		return nil
	}
	if err := s.writeCrontab(updated); err != nil {
		return err
	}
	log.Info("crontab entry removed", "task", s.Task)
	return nil
}

func (s *Scheduler) readCrontab() (string, error) {
	out, err := s.run(context.Background(), nil, "crontab", "-l")
	if err != nil {
		// crontab -l exits 1 when the user has no crontab yet.
		if strings.Contains(strings.ToLower(string(out)), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (s *Scheduler) writeCrontab(content string) error {
	if out, err := s.run(context.Background(), []byte(content), "crontab", "-"); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
