//go:build linux

package wallpaper

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	cmds    [][]string
	scripts []string
	failOn  string // fail any command whose args contain this
	out     []byte
}

func (r *recorder) run(name string, args ...string) error {
	cmd := append([]string{name}, args...)
	r.cmds = append(r.cmds, cmd)
	if r.failOn != "" && strings.Contains(strings.Join(cmd, " "), r.failOn) {
		return errors.New("exit status 1")
	}
	return nil
}

func (r *recorder) output(name string, args ...string) ([]byte, error) {
	r.cmds = append(r.cmds, append([]string{name}, args...))
	return r.out, nil
}

func (r *recorder) plasma(script string) error {
	r.scripts = append(r.scripts, script)
	return nil
}

func newTestLinuxBackend(desktop string) (*linuxBackend, *recorder) {
	rec := &recorder{}
	return &linuxBackend{
		forced: desktop,
		run:    rec.run,
		output: rec.output,
		plasma: rec.plasma,
		detect: func() string { return "" },
	}, rec
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLinuxApplyGnome(t *testing.T) {
	b, rec := newTestLinuxBackend("gnome")
	img := writeImage(t, "sunset.png")

	if err := b.Apply(img, applyFlags); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	uri := "file://" + img
	want := [][]string{
		{"gsettings", "set", gnomeSchema, "picture-uri", uri},
		{"gsettings", "set", gnomeSchema, "picture-uri-dark", uri},
	}
	if !reflect.DeepEqual(rec.cmds, want) {
		t.Fatalf("commands = %v, want %v", rec.cmds, want)
	}
}

func TestLinuxApplyGnomeToleratesMissingDarkKey(t *testing.T) {
	b, rec := newTestLinuxBackend("gnome")
	rec.failOn = "picture-uri-dark"
	img := writeImage(t, "sunset.png")

	if err := b.Apply(img, applyFlags); err != nil {
		t.Fatalf("Apply should ignore picture-uri-dark failures: %v", err)
	}
}

func TestLinuxApplyGnomeFailure(t *testing.T) {
	b, rec := newTestLinuxBackend("gnome")
	rec.failOn = "gsettings"
	img := writeImage(t, "sunset.png")

	if err := b.Apply(img, applyFlags); err == nil {
		t.Fatal("expected error when gsettings fails")
	}
}

func TestLinuxApplyDconfAndXfce(t *testing.T) {
	img := writeImage(t, "lake.jpg")
	uri := "file://" + img

	tests := []struct {
		desktop string
		want    []string
	}{
		{"cinnamon", []string{"dconf", "write", cinnamonKey, `"` + uri + `"`}},
		{"mate", []string{"dconf", "write", mateKey, `"` + img + `"`}},
		{"deepin", []string{"dconf", "write", deepinKey, `"` + uri + `"`}},
		{"xfce", []string{"xfconf-query", "-c", xfceChannel, "-p", xfceProperty, "-s", img}},
	}
	for _, tt := range tests {
		t.Run(tt.desktop, func(t *testing.T) {
			b, rec := newTestLinuxBackend(tt.desktop)
			if err := b.Apply(img, applyFlags); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(rec.cmds) != 1 || !reflect.DeepEqual(rec.cmds[0], tt.want) {
				t.Fatalf("commands = %v, want [%v]", rec.cmds, tt.want)
			}
		})
	}
}

func TestLinuxApplyKDEUsesPlasmaScript(t *testing.T) {
	b, rec := newTestLinuxBackend("kde")
	img := writeImage(t, "peak.webp")

	if err := b.Apply(img, applyFlags); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(rec.cmds) != 0 {
		t.Fatalf("kde should not shell out, got %v", rec.cmds)
	}
	if len(rec.scripts) != 1 || !strings.Contains(rec.scripts[0], `"file://`+img+`"`) {
		t.Fatalf("unexpected plasma script: %v", rec.scripts)
	}
}

func TestLinuxApplyMissingFile(t *testing.T) {
	b, rec := newTestLinuxBackend("gnome")

	err := b.Apply(filepath.Join(t.TempDir(), "nope.png"), applyFlags)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Apply(missing) = %v, want ErrNotExist", err)
	}
	if len(rec.cmds) != 0 {
		t.Fatalf("no command should run for a missing file, got %v", rec.cmds)
	}
}

func TestLinuxApplyUnknownDesktop(t *testing.T) {
	b, _ := newTestLinuxBackend("")
	img := writeImage(t, "a.png")

	if err := b.Apply(img, applyFlags); err == nil || !strings.Contains(err.Error(), "unsupported desktop") {
		t.Fatalf("Apply = %v, want unsupported desktop error", err)
	}
	if b.Name() != "linux/unknown" {
		t.Fatalf("Name = %q", b.Name())
	}
}

func TestLinuxCurrentGnome(t *testing.T) {
	b, rec := newTestLinuxBackend("gnome")
	rec.out = []byte("'file:///home/u/Pictures/a%20b.png'\n")

	got, err := b.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "/home/u/Pictures/a b.png" {
		t.Fatalf("Current = %q", got)
	}
}

func TestLinuxCurrentXfce(t *testing.T) {
	b, rec := newTestLinuxBackend("xfce")
	rec.out = []byte("/usr/share/backgrounds/xfce/blue.png\n")

	got, err := b.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "/usr/share/backgrounds/xfce/blue.png" {
		t.Fatalf("Current = %q", got)
	}
}

func TestFileURIEscapes(t *testing.T) {
	if got := fileURI("/tmp/a b.png"); got != "file:///tmp/a%20b.png" {
		t.Fatalf("fileURI = %q", got)
	}
}

func TestNormalizeDesktop(t *testing.T) {
	tests := map[string]string{
		"ubuntu:GNOME": "gnome",
		"GNOME":        "gnome",
		"X-Cinnamon":   "cinnamon",
		"MATE":         "mate",
		"Deepin":       "deepin",
		"XFCE":         "xfce",
		"KDE":          "kde",
		"plasma":       "kde",
		"pop:GNOME":    "gnome",
		"Budgie:GNOME": "gnome",
		"":             "",
		"Hyprland":     "",
	}
	for in, want := range tests {
		if got := normalizeDesktop(in); got != want {
			t.Errorf("normalizeDesktop(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectDesktopEnvFromEnvironment(t *testing.T) {
	t.Setenv("XDG_CURRENT_DESKTOP", "ubuntu:GNOME")
	t.Setenv("DESKTOP_SESSION", "plasma")
	if got := detectDesktopEnv(); got != "gnome" {
		t.Fatalf("detectDesktopEnv = %q, want gnome", got)
	}

	t.Setenv("XDG_CURRENT_DESKTOP", "")
	if got := detectDesktopEnv(); got != "kde" {
		t.Fatalf("detectDesktopEnv = %q, want kde from DESKTOP_SESSION", got)
	}
}

func TestProcessSnapshotDesktop(t *testing.T) {
	snap := &processSnapshot{names: map[string]bool{"bash": true, "xfdesktop": true}}
	if got := snap.desktop(); got != "xfce" {
		t.Fatalf("desktop = %q, want xfce", got)
	}
	snap = &processSnapshot{names: map[string]bool{"gnome-shell": true, "plasmashell": true}}
	if got := snap.desktop(); got != "kde" {
		t.Fatalf("desktop = %q, want kde (plasmashell checked first)", got)
	}
}

func TestDetectIsCachedPerBackend(t *testing.T) {
	calls := 0
	b := &linuxBackend{detect: func() string { calls++; return "gnome" }}
	b.Name()
	b.Name()
	if calls != 1 {
		t.Fatalf("detect called %d times, want 1", calls)
	}
}
