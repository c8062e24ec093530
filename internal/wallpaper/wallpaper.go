// Package wallpaper applies an image as the desktop background through the
// host platform's own facility.
package wallpaper

import (
	"errors"
	"fmt"
	"time"

	"github.com/breeze-rmm/dailywall/internal/logging"
)

var log = logging.L("wallpaper")

var (
	// ErrMissingArgument means no image path was supplied.
	ErrMissingArgument = errors.New("no image path supplied")
	// ErrUnsupportedPlatform is returned by backends that cannot set a wallpaper.
	ErrUnsupportedPlatform = errors.New("setting the wallpaper is not supported on this platform")
)

// SystemParametersInfo fWinIni bits.
const (
	spifUpdateINIFile = 0x01
	spifSendChange    = 0x02
)

// Request is a single wallpaper change.
type Request struct {
	ImagePath string
}

// Validate only requires a non-empty path; whether it names a usable image
// is for the platform to decide.
func (r Request) Validate() error {
	if r.ImagePath == "" {
		return ErrMissingArgument
	}
	return nil
}

// Flags select how the new setting is published.
type Flags struct {
	// Persist writes the setting to the user profile.
	Persist bool
	// Notify broadcasts the change to running applications.
	Notify bool
}

// applyFlags is what every Set call requests.
var applyFlags = Flags{Persist: true, Notify: true}

// WinIni encodes the flags as the fWinIni argument of SystemParametersInfo.
func (f Flags) WinIni() uint32 {
	var v uint32
	if f.Persist {
		v |= spifUpdateINIFile
	}
	if f.Notify {
		v |= spifSendChange
	}
	return v
}

// Backend is the platform boundary.
type Backend interface {
	Name() string
	Apply(path string, flags Flags) error
	Current() (string, error)
}

// OSCallError reports a failure of the platform facility.
type OSCallError struct {
	Backend string
	Path    string
	Err     error
}

func (e *OSCallError) Error() string {
	return fmt.Sprintf("%s: set %q: %v", e.Backend, e.Path, e.Err)
}

func (e *OSCallError) Unwrap() error {
	return e.Err
}

// Setter sets the desktop wallpaper.
type Setter struct {
	backend Backend
}

// New returns a Setter for the running platform. desktopEnv forces a Linux
// desktop backend ("gnome", "kde", ...); empty means detect.
func New(desktopEnv string) *Setter {
	return &Setter{backend: newBackend(desktopEnv)}
}

// NewWithBackend returns a Setter that uses b.
func NewWithBackend(b Backend) *Setter {
	return &Setter{backend: b}
}

// Set applies req.ImagePath, persisting it to the user profile and notifying
// other applications. The path is handed to the platform as is.
func (s *Setter) Set(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	start := time.Now()
	if err := s.backend.Apply(req.ImagePath, applyFlags); err != nil {
		var oe *OSCallError
		if errors.As(err, &oe) {
			return err
		}
		return &OSCallError{Backend: s.backend.Name(), Path: req.ImagePath, Err: err}
	}

	log.Debug("wallpaper applied",
		logging.KeyPath, req.ImagePath,
		logging.KeyBackend, s.backend.Name(),
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)
	return nil
}

// Current returns the wallpaper the platform reports, or "" when unknown.
func (s *Setter) Current() (string, error) {
	return s.backend.Current()
}

// Backend reports which platform backend is in use.
func (s *Setter) Backend() string {
	return s.backend.Name()
}

// Set applies path with the platform's default backend.
func Set(path string) error {
	return New("").Set(Request{ImagePath: path})
}
