// Package state persists the wallpaper cycle: candidates, the wallpaper
// currently shown, the change schedule and mirrored remote sources.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2/maybe"
)

var (
	ErrNotInitialized     = errors.New("wallpaper state not initialized (run 'dw init')")
	ErrAlreadyInitialized = errors.New("wallpaper state already exists (use --force to overwrite)")
)

// Wallpaper is the position of the cycle. For a directory candidate Child is
// set and SubIndex points at the image inside it. Between means the shown
// candidate was removed and the position sits just before Index.
type Wallpaper struct {
	Index    int       `json:"index" yaml:"index"`
	Path     string    `json:"path" yaml:"path"`
	DateSet  time.Time `json:"date_set" yaml:"date_set"`
	Child    bool      `json:"child" yaml:"child"`
	SubIndex int       `json:"sub_index" yaml:"sub_index"`
	Between  bool      `json:"between,omitempty" yaml:"between,omitempty"`
}

type TimeConfig struct {
	Preset   Preset `json:"preset" yaml:"preset"`
	Interval int    `json:"interval" yaml:"interval"`
}

// Source is a remote collection mirrored into Dir.
type Source struct {
	URI      string    `json:"uri" yaml:"uri"`
	Dir      string    `json:"dir" yaml:"dir"`
	SyncedAt time.Time `json:"synced_at" yaml:"synced_at"`
}

type State struct {
	ActualWallpaper Wallpaper  `json:"actual_wallpaper" yaml:"actual_wallpaper"`
	TimeConfig      TimeConfig `json:"time_config" yaml:"time_config"`
	Candidates      []string   `json:"candidates" yaml:"candidates"`
	Enabled         bool       `json:"enabled" yaml:"enabled"`
	Sources         []Source   `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// Empty is the document written by init: a daily change and no candidates.
func Empty(now time.Time) *State {
	return &State{
		ActualWallpaper: Wallpaper{DateSet: now},
		TimeConfig:      TimeConfig{Preset: PresetDay, Interval: 1},
		Candidates:      []string{},
	}
}

// CandidateIndex returns the position of path in Candidates or -1.
func (s *State) CandidateIndex(path string) int {
	for i, c := range s.Candidates {
		if c == path {
			return i
		}
	}
	return -1
}

// SourceIndex returns the position of uri in Sources or -1.
func (s *State) SourceIndex(uri string) int {
	for i, src := range s.Sources {
		if src.URI == uri {
			return i
		}
	}
	return -1
}

func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a state document. name is only used in error messages.
func Parse(data []byte, name string) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", name, err)
	}
	if st.Candidates == nil {
		st.Candidates = []string{}
	}
	if err := ValidateTime(&st.TimeConfig); err != nil {
		return nil, fmt.Errorf("state %s: %w", name, err)
	}
	return &st, nil
}

// Save writes st. Readers see the old or the new document, never a partial
// one.
func Save(path string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// Init writes an empty state document. An existing one is only replaced when
// force is set.
func Init(path string, now time.Time, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return ErrAlreadyInitialized
		}
	}
	return Save(path, Empty(now))
}

// Import replaces the state at dst with the document at src after checking
// that src parses.
func Import(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if _, err := Parse(data, src); err != nil {
		return err
	}
	return writeAtomic(dst, data)
}

// writeAtomic is atomic on Unix; on Windows maybe.WriteFile falls back to a
// plain write.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := maybe.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
