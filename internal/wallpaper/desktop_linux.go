//go:build linux

package wallpaper

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// desktopProcesses maps a session process to the desktop it belongs to.
// Checked in order; the first running one wins.
var desktopProcesses = []struct {
	name    string
	desktop string
}{
	{"plasmashell", "kde"},
	{"cinnamon", "cinnamon"},
	{"mate-session", "mate"},
	{"dde-desktop", "deepin"},
	{"xfdesktop", "xfce"},
	{"gnome-shell", "gnome"},
}

func detectDesktopEnv() string {
	if de := normalizeDesktop(os.Getenv("XDG_CURRENT_DESKTOP")); de != "" {
		return de
	}
	if de := normalizeDesktop(os.Getenv("DESKTOP_SESSION")); de != "" {
		return de
	}

	// Cron and other detached launches have neither variable set.
	snap, err := newProcessSnapshot()
	if err != nil {
		log.Debug("process snapshot failed", "error", err)
		return ""
	}
	return snap.desktop()
}

func normalizeDesktop(s string) string {
	s = strings.ToLower(s)
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "cinnamon"):
		return "cinnamon"
	case strings.Contains(s, "mate"):
		return "mate"
	case strings.Contains(s, "deepin"):
		return "deepin"
	case strings.Contains(s, "xfce"):
		return "xfce"
	case strings.Contains(s, "kde"), strings.Contains(s, "plasma"):
		return "kde"
	case strings.Contains(s, "gnome"), strings.Contains(s, "ubuntu"),
		strings.Contains(s, "unity"), strings.Contains(s, "budgie"), strings.Contains(s, "pop"):
		return "gnome"
	}
	return ""
}

// processSnapshot caches all process names for batch matching.
type processSnapshot struct {
	names map[string]bool // lowercase process names
}

func newProcessSnapshot() (*processSnapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		names[strings.ToLower(name)] = true
	}
	return &processSnapshot{names: names}, nil
}

func (s *processSnapshot) desktop() string {
	for _, dp := range desktopProcesses {
		if s.names[dp.name] {
			return dp.desktop
		}
	}
	return ""
}
