package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/state"
)

// Cycler is the part of the cycle manager the runner drives.
type Cycler interface {
	Next() error
	EnsureCurrent() (bool, error)
	State() (*state.State, error)
}

const defaultRefresh = time.Minute

// Runner changes the wallpaper on the configured interval while it runs and
// reacts to images disappearing from the candidate directories. It re-reads
// the state periodically, so CLI changes made meanwhile take effect.
type Runner struct {
	cycler   Cycler
	refresh  time.Duration
	interval func(state.TimeConfig) (time.Duration, error)
	now      func() time.Time
}

func NewRunner(c Cycler) *Runner {
	return &Runner{
		cycler:   c,
		refresh:  defaultRefresh,
		interval: Interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	st, err := r.cycler.State()
	if err != nil {
		return err
	}
	every, err := r.interval(st.TimeConfig)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()
	watched := make(map[string]bool)
	r.syncWatches(watcher, watched, st)

	timer := time.NewTimer(r.untilDue(st, every))
	defer timer.Stop()
	refresh := time.NewTicker(r.refresh)
	defer refresh.Stop()

	log.Info("cycling started", "preset", st.TimeConfig.Preset, "interval", st.TimeConfig.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("cycling stopped")
			return nil

		case <-timer.C:
			if err := r.cycler.Next(); err != nil {
				log.Warn("scheduled wallpaper change failed", logging.KeyError, err)
			}
			timer.Reset(every)

		case <-refresh.C:
			fresh, err := r.cycler.State()
			if err != nil {
				log.Warn("failed to reload state", logging.KeyError, err)
				continue
			}
			r.syncWatches(watcher, watched, fresh)
			if fresh.TimeConfig != st.TimeConfig {
				if d, err := r.interval(fresh.TimeConfig); err == nil {
					every = d
					resetTimer(timer, r.untilDue(fresh, every))
					log.Info("interval changed", "preset", fresh.TimeConfig.Preset, "interval", fresh.TimeConfig.Interval)
				}
			}
			st = fresh

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				log.Debug("candidate directory changed", logging.KeyPath, event.Name, "op", event.Op.String())
				continue
			}
			changed, err := r.cycler.EnsureCurrent()
			if err != nil {
				log.Warn("failed to replace missing wallpaper", logging.KeyError, err)
			} else if changed {
				timer.Reset(every)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			log.Warn("fsnotify watcher error", logging.KeyError, err)
		}
	}
}

// untilDue is the time left before the next change is due, counted from
// when the current wallpaper was set.
func (r *Runner) untilDue(st *state.State, every time.Duration) time.Duration {
	set := st.ActualWallpaper.DateSet
	if st.ActualWallpaper.Path == "" || set.IsZero() {
		return 0
	}
	d := set.Add(every).Sub(r.now())
	if d < 0 {
		return 0
	}
	return d
}

func resetTimer(t *time.Timer, d time.Duration) {
	t.Stop()
	t.Reset(d)
}

// syncWatches makes the watch list match the candidates: directories are
// watched directly, single files through their parent directory.
func (r *Runner) syncWatches(w *fsnotify.Watcher, watched map[string]bool, st *state.State) {
	want := make(map[string]bool)
	for _, c := range st.Candidates {
		info, err := os.Stat(c)
		if err != nil {
			continue
		}
		if info.IsDir() {
			want[c] = true
		} else {
			want[filepath.Dir(c)] = true
		}
	}

	for dir := range watched {
		if !want[dir] {
			_ = w.Remove(dir)
			delete(watched, dir)
		}
	}
	for dir := range want {
		if watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			log.Warn("cannot watch candidate directory", logging.KeyPath, dir, logging.KeyError, err)
			continue
		}
		watched[dir] = true
	}
}
