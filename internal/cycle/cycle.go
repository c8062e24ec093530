// Package cycle moves through the configured wallpaper candidates and keeps
// the persisted state in step with what is on screen.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/source"
	"github.com/breeze-rmm/dailywall/internal/state"
	"github.com/breeze-rmm/dailywall/internal/wallpaper"
)

var log = logging.L("cycle")

var (
	ErrDuplicate    = errors.New("wallpaper already added")
	ErrNotFound     = errors.New("wallpaper not found")
	ErrNoCandidates = errors.New("no wallpaper images available")
	ErrNotImage     = errors.New("file is not a supported image")
	ErrNoSyncer     = errors.New("remote sources are not configured")
)

// Setter applies an image. *wallpaper.Setter satisfies it.
type Setter interface {
	Set(req wallpaper.Request) error
}

// Scheduler installs the OS task that runs "next" on the configured interval.
type Scheduler interface {
	Install(tc state.TimeConfig) error
	Remove() error
}

// Syncer mirrors remote sources. *source.Mirror satisfies it.
type Syncer interface {
	Sync(ctx context.Context, raw string) (source.Result, error)
	Purge(raw string) error
}

// Manager runs cycle operations against the state file. Each operation
// loads the state, applies its change and saves it again.
type Manager struct {
	mu        sync.Mutex
	statePath string
	setter    Setter
	scheduler Scheduler
	syncer    Syncer
	now       func() time.Time
}

// New returns a Manager. scheduler and syncer may be nil when the caller
// never enables scheduling or adds remote sources.
func New(statePath string, setter Setter, scheduler Scheduler, syncer Syncer) *Manager {
	return &Manager{
		statePath: statePath,
		setter:    setter,
		scheduler: scheduler,
		syncer:    syncer,
		now:       time.Now,
	}
}

// State returns the persisted document.
func (m *Manager) State() (*state.State, error) {
	return state.Load(m.statePath)
}

func (m *Manager) update(fn func(st *state.State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := state.Load(m.statePath)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return state.Save(m.statePath, st)
}

// Add appends a file, directory or remote source URI to the candidates.
// Remote sources are mirrored first and their mirror directory is added.
func (m *Manager) Add(ctx context.Context, p string) error {
	if source.IsRemote(p) {
		return m.addRemote(ctx, p)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("add %s: %w", p, err)
	}
	if !info.IsDir() && !IsImage(abs) {
		return fmt.Errorf("add %s: %w", p, ErrNotImage)
	}

	return m.update(func(st *state.State) error {
		if st.CandidateIndex(abs) >= 0 {
			return fmt.Errorf("%s: %w", abs, ErrDuplicate)
		}
		if info.IsDir() {
			if imgs, _ := Images(abs); len(imgs) == 0 {
				log.Warn("directory has no images yet", logging.KeyPath, abs)
			}
		}
		st.Candidates = append(st.Candidates, abs)
		log.Info("wallpaper added", logging.KeyPath, abs)
		return nil
	})
}

func (m *Manager) addRemote(ctx context.Context, uri string) error {
	if m.syncer == nil {
		return ErrNoSyncer
	}
	st, err := m.State()
	if err != nil {
		return err
	}
	if st.SourceIndex(uri) >= 0 {
		return fmt.Errorf("%s: %w", uri, ErrDuplicate)
	}

	res, err := m.syncer.Sync(ctx, uri)
	if err != nil {
		return err
	}

	return m.update(func(st *state.State) error {
		if st.SourceIndex(uri) >= 0 || st.CandidateIndex(res.Dir) >= 0 {
			return fmt.Errorf("%s: %w", uri, ErrDuplicate)
		}
		st.Sources = append(st.Sources, state.Source{URI: uri, Dir: res.Dir, SyncedAt: res.SyncedAt})
		st.Candidates = append(st.Candidates, res.Dir)
		log.Info("remote source added", logging.KeySource, uri, logging.KeyPath, res.Dir)
		return nil
	})
}

// Remove drops a candidate, or a remote source together with its mirror.
func (m *Manager) Remove(p string) error {
	if source.IsRemote(p) {
		return m.removeRemote(p)
	}

	return m.update(func(st *state.State) error {
		i := st.CandidateIndex(p)
		if i < 0 {
			if abs, err := filepath.Abs(p); err == nil {
				i = st.CandidateIndex(abs)
			}
		}
		if i < 0 {
			return fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		if si := sourceForDir(st, st.Candidates[i]); si >= 0 {
			return fmt.Errorf("%s is the mirror of %s; remove the source instead", p, st.Sources[si].URI)
		}
		removeCandidate(st, i)
		log.Info("wallpaper removed", logging.KeyPath, p)
		return nil
	})
}

func (m *Manager) removeRemote(uri string) error {
	err := m.update(func(st *state.State) error {
		si := st.SourceIndex(uri)
		if si < 0 {
			return fmt.Errorf("%s: %w", uri, ErrNotFound)
		}
		dir := st.Sources[si].Dir
		st.Sources = append(st.Sources[:si], st.Sources[si+1:]...)
		if ci := st.CandidateIndex(dir); ci >= 0 {
			removeCandidate(st, ci)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if m.syncer != nil {
		if err := m.syncer.Purge(uri); err != nil {
			log.Warn("failed to remove mirror", logging.KeySource, uri, logging.KeyError, err)
		}
	}
	log.Info("remote source removed", logging.KeySource, uri)
	return nil
}

func sourceForDir(st *state.State, dir string) int {
	for i, s := range st.Sources {
		if s.Dir == dir {
			return i
		}
	}
	return -1
}

// removeCandidate deletes candidate i and keeps the cycle position stable.
// Removing the current candidate leaves the position between its neighbours:
// Next continues with the one that followed it, Previous with the one before.
func removeCandidate(st *state.State, i int) {
	st.Candidates = append(st.Candidates[:i], st.Candidates[i+1:]...)
	cur := &st.ActualWallpaper

	switch {
	case len(st.Candidates) == 0:
		cur.Index, cur.Child, cur.SubIndex, cur.Between = 0, false, 0, false
	case i < cur.Index:
		cur.Index--
	case i == cur.Index:
		cur.Index = i % len(st.Candidates)
		cur.Child, cur.SubIndex, cur.Between = false, 0, true
	}
}

// SetPreset stores the change interval and reinstalls the schedule when
// cycling is enabled.
func (m *Manager) SetPreset(preset string, interval int) error {
	p, err := state.ParsePreset(preset)
	if err != nil {
		return err
	}
	tc := state.TimeConfig{Preset: p, Interval: interval}
	if err := state.ValidateTime(&tc); err != nil {
		return err
	}

	return m.update(func(st *state.State) error {
		st.TimeConfig = tc
		if st.Enabled && m.scheduler != nil {
			if err := m.scheduler.Install(tc); err != nil {
				return fmt.Errorf("reinstall schedule: %w", err)
			}
		}
		return nil
	})
}

// Enable installs the OS schedule and marks cycling as on.
func (m *Manager) Enable() error {
	if m.scheduler == nil {
		return errors.New("no scheduler available")
	}
	return m.update(func(st *state.State) error {
		if err := m.scheduler.Install(st.TimeConfig); err != nil {
			return fmt.Errorf("install schedule: %w", err)
		}
		st.Enabled = true
		return nil
	})
}

// Disable removes the OS schedule and marks cycling as off.
func (m *Manager) Disable() error {
	if m.scheduler == nil {
		return errors.New("no scheduler available")
	}
	return m.update(func(st *state.State) error {
		if err := m.scheduler.Remove(); err != nil {
			return fmt.Errorf("remove schedule: %w", err)
		}
		st.Enabled = false
		return nil
	})
}

// SetWallpaper applies path directly. The cycle position is left alone.
func (m *Manager) SetWallpaper(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	return m.setter.Set(wallpaper.Request{ImagePath: abs})
}

// Sync re-mirrors every remote source. A source that fails keeps its old
// mirror; the failures are returned together.
func (m *Manager) Sync(ctx context.Context) error {
	if m.syncer == nil {
		return ErrNoSyncer
	}
	st, err := m.State()
	if err != nil {
		return err
	}

	results := make(map[string]source.Result)
	var errs []error
	for _, src := range st.Sources {
		res, err := m.syncer.Sync(ctx, src.URI)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[src.URI] = res
	}

	if err := m.update(func(st *state.State) error {
		for i := range st.Sources {
			res, ok := results[st.Sources[i].URI]
			if !ok {
				continue
			}
			if ci := st.CandidateIndex(st.Sources[i].Dir); ci >= 0 {
				st.Candidates[ci] = res.Dir
			}
			st.Sources[i].Dir = res.Dir
			st.Sources[i].SyncedAt = res.SyncedAt
		}
		return nil
	}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
