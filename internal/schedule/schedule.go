// Package schedule turns the cycle's time config into an OS task (crontab or
// Task Scheduler) and runs the foreground cycling loop.
package schedule

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/state"
)

var log = logging.L("schedule")

// CronSpec returns the five cron fields for tc.
func CronSpec(tc state.TimeConfig) (string, error) {
	if err := state.ValidateTime(&tc); err != nil {
		return "", err
	}
	n := strconv.Itoa(tc.Interval)
	switch tc.Preset {
	case state.PresetMinute:
		return "*/" + n + " * * * *", nil
	case state.PresetHour:
		return "0 */" + n + " * * *", nil
	default:
		return "0 0 */" + n + " * *", nil
	}
}

// CronLine is a crontab entry running command on tc's interval.
func CronLine(tc state.TimeConfig, command string) (string, error) {
	spec, err := CronSpec(tc)
	if err != nil {
		return "", err
	}
	return spec + " " + command, nil
}

// SchtasksArgs returns the schtasks.exe arguments that create (or replace)
// task running command on tc's interval.
func SchtasksArgs(tc state.TimeConfig, task, command string) ([]string, error) {
	if err := state.ValidateTime(&tc); err != nil {
		return nil, err
	}
	sc := "DAILY"
	switch tc.Preset {
	case state.PresetMinute:
		sc = "MINUTE"
	case state.PresetHour:
		sc = "HOURLY"
	}
	return []string{
		"/create",
		"/tn", task,
		"/tr", command,
		"/sc", sc,
		"/mo", strconv.Itoa(tc.Interval),
		"/IT",
		"/F",
	}, nil
}

// Interval is tc as a duration.
func Interval(tc state.TimeConfig) (time.Duration, error) {
	if err := state.ValidateTime(&tc); err != nil {
		return 0, err
	}
	unit := 24 * time.Hour
	switch tc.Preset {
	case state.PresetMinute:
		unit = time.Minute
	case state.PresetHour:
		unit = time.Hour
	}
	return time.Duration(tc.Interval) * unit, nil
}

// Command is the shell command the OS task runs: "<exe> next", plus
// --config when a non-default settings file is in use. A relative cfgFile
// is made absolute, since the task does not run in the caller's directory.
func Command(exe, cfgFile string) string {
	cmd := quote(exe) + " next"
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		cmd += " --config " + quote(cfgFile)
	}
	return cmd
}

// withEnv prefixes command with NAME=value assignments for sh.
func withEnv(env []string, command string) string {
	if len(env) == 0 {
		return command
	}
	parts := make([]string, 0, len(env)+1)
	for _, kv := range env {
		name, value, _ := strings.Cut(kv, "=")
		parts = append(parts, name+"="+shellQuote(value))
	}
	return strings.Join(append(parts, command), " ")
}

// shellQuote single-quotes v unless it only holds characters sh leaves alone.
func shellQuote(v string) string {
	safe := v != "" && strings.IndexFunc(v, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("/:=,._-+@", r))
	}) < 0
	if safe {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// quote wraps paths containing blanks in double quotes, which both sh and
// schtasks /tr understand.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t") {
		return s
	}
	return `"` + s + `"`
}
