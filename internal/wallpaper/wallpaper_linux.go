//go:build linux

package wallpaper

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	gnomeSchema  = "org.gnome.desktop.background"
	xfceChannel  = "xfce4-desktop"
	xfceProperty = "/backdrop/screen0/monitor0/workspace0/last-image"

	cinnamonKey = "/org/cinnamon/desktop/background/picture-uri"
	mateKey     = "/org/mate/desktop/background/picture-filename"
	deepinKey   = "/com/deepin/wrap/gnome/desktop/background/picture-uri"
)

// linuxBackend dispatches on the desktop environment. gsettings, dconf and
// xfconf all persist to the user's settings store and notify their own
// listeners, so Flags carry no extra work here.
type linuxBackend struct {
	forced string

	run    func(name string, args ...string) error
	output func(name string, args ...string) ([]byte, error)
	plasma func(script string) error
	detect func() string

	once     sync.Once
	resolved string
}

func newBackend(desktopEnv string) Backend {
	return &linuxBackend{
		forced: strings.ToLower(strings.TrimSpace(desktopEnv)),
		run:    runCommand,
		output: commandOutput,
		plasma: evaluatePlasmaScript,
		detect: detectDesktopEnv,
	}
}

func (b *linuxBackend) desktop() string {
	if b.forced != "" {
		return b.forced
	}
	b.once.Do(func() {
		b.resolved = b.detect()
	})
	return b.resolved
}

func (b *linuxBackend) Name() string {
	de := b.desktop()
	if de == "" {
		de = "unknown"
	}
	return "linux/" + de
}

func (b *linuxBackend) Apply(path string, _ Flags) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// None of these tools reject a missing file.
	if _, err := os.Stat(abs); err != nil {
		return err
	}
	uri := fileURI(abs)

	switch de := b.desktop(); de {
	case "gnome":
		if err := b.run("gsettings", "set", gnomeSchema, "picture-uri", uri); err != nil {
			return err
		}
		// picture-uri-dark only exists from GNOME 42 on.
		if err := b.run("gsettings", "set", gnomeSchema, "picture-uri-dark", uri); err != nil {
			log.Debug("picture-uri-dark not updated", "error", err)
		}
		return nil
	case "cinnamon":
		return b.run("dconf", "write", cinnamonKey, strconv.Quote(uri))
	case "mate":
		return b.run("dconf", "write", mateKey, strconv.Quote(abs))
	case "deepin":
		return b.run("dconf", "write", deepinKey, strconv.Quote(uri))
	case "xfce":
		return b.run("xfconf-query", "-c", xfceChannel, "-p", xfceProperty, "-s", abs)
	case "kde":
		return b.plasma(plasmaScript(uri))
	default:
		return fmt.Errorf("unsupported desktop environment %q", de)
	}
}

func (b *linuxBackend) Current() (string, error) {
	var (
		out []byte
		err error
	)
	switch de := b.desktop(); de {
	case "gnome":
		out, err = b.output("gsettings", "get", gnomeSchema, "picture-uri")
	case "cinnamon":
		out, err = b.output("dconf", "read", cinnamonKey)
	case "mate":
		out, err = b.output("dconf", "read", mateKey)
	case "deepin":
		out, err = b.output("dconf", "read", deepinKey)
	case "xfce":
		out, err = b.output("xfconf-query", "-c", xfceChannel, "-p", xfceProperty)
	case "kde":
		// Plasma has no read-back through evaluateScript.
		return "", nil
	default:
		return "", fmt.Errorf("unsupported desktop environment %q", de)
	}
	if err != nil {
		return "", err
	}
	return pathFromSetting(string(out)), nil
}

func plasmaScript(uri string) string {
	return `var all = desktops();
for (var i = 0; i < all.length; i++) {
	var d = all[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
	d.writeConfig("Image", ` + strconv.Quote(uri) + `);
}`
}

func fileURI(abs string) string {
	return (&url.URL{Scheme: "file", Path: abs}).String()
}

// pathFromSetting strips the quoting gsettings/dconf put around string values
// and turns a file:// URI back into a path.
func pathFromSetting(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "'\"")
	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil {
			return u.Path
		}
	}
	return s
}

func runCommand(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func commandOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}
