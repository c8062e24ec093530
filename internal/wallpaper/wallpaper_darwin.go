//go:build darwin

package wallpaper

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

type darwinBackend struct{}

func newBackend(string) Backend {
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "osascript" }

// Apply sets every desktop. System Events persists the choice and the Dock
// repaints on its own, so flags need no separate handling.
func (b *darwinBackend) Apply(path string, _ Flags) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	script := `tell application "System Events" to tell every desktop to set picture to ` + strconv.Quote(path)
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *darwinBackend) Current() (string, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "Finder" to get POSIX path of (get desktop picture as alias)`).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
