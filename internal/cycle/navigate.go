package cycle

import (
	"os"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/state"
	"github.com/breeze-rmm/dailywall/internal/wallpaper"
)

// slot is a resolved cycle position.
type slot struct {
	index    int
	child    bool
	subIndex int
	path     string
}

// expand returns the images a candidate contributes: the images of a
// directory, or the file itself. Unreadable candidates contribute nothing.
func expand(candidate string) (images []string, isDir bool) {
	info, err := os.Stat(candidate)
	if err != nil {
		log.Warn("candidate unavailable", logging.KeyPath, candidate, logging.KeyError, err)
		return nil, false
	}
	if !info.IsDir() {
		return []string{candidate}, false
	}
	images, err = Images(candidate)
	if err != nil {
		log.Warn("cannot list candidate directory", logging.KeyPath, candidate, logging.KeyError, err)
	}
	return images, true
}

// firstFrom scans candidates starting at start, moving by dir (+1 or -1),
// and returns the first (or, going backwards, last) image found. At most
// every candidate is visited once.
func firstFrom(st *state.State, start, dir int) (slot, bool) {
	n := len(st.Candidates)
	for step := 0; step < n; step++ {
		i := ((start+dir*step)%n + n) % n
		images, isDir := expand(st.Candidates[i])
		if len(images) == 0 {
			continue
		}
		sub := 0
		if dir < 0 {
			sub = len(images) - 1
		}
		return slot{index: i, child: isDir, subIndex: sub, path: images[sub]}, true
	}
	return slot{}, false
}

func (m *Manager) apply(st *state.State, s slot) error {
	if err := m.setter.Set(wallpaper.Request{ImagePath: s.path}); err != nil {
		return err
	}
	st.ActualWallpaper = state.Wallpaper{
		Index:    s.index,
		Path:     s.path,
		DateSet:  m.now(),
		Child:    s.child,
		SubIndex: s.subIndex,
	}
	log.Info("wallpaper changed", logging.KeyPath, s.path, "index", s.index, "subIndex", s.subIndex)
	return nil
}

// started reports whether the cycle has a valid position yet.
func started(st *state.State) bool {
	cur := st.ActualWallpaper
	return cur.Path != "" && cur.Index >= 0 && cur.Index < len(st.Candidates)
}

// Reset applies the first image of the first candidate that has one.
func (m *Manager) Reset() error {
	return m.update(func(st *state.State) error {
		if len(st.Candidates) == 0 {
			return ErrNoCandidates
		}
		s, ok := firstFrom(st, 0, 1)
		if !ok {
			return ErrNoCandidates
		}
		return m.apply(st, s)
	})
}

// Next applies the following image: the next one in the current directory,
// otherwise the first image of the next candidate, wrapping at the end.
func (m *Manager) Next() error {
	return m.update(func(st *state.State) error {
		if len(st.Candidates) == 0 {
			return ErrNoCandidates
		}
		if !started(st) {
			s, ok := firstFrom(st, 0, 1)
			if !ok {
				return ErrNoCandidates
			}
			return m.apply(st, s)
		}

		cur := st.ActualWallpaper
		if cur.Between {
			s, ok := firstFrom(st, cur.Index, 1)
			if !ok {
				return ErrNoCandidates
			}
			return m.apply(st, s)
		}
		if cur.Child {
			images, _ := expand(st.Candidates[cur.Index])
			if next := cur.SubIndex + 1; next < len(images) {
				return m.apply(st, slot{index: cur.Index, child: true, subIndex: next, path: images[next]})
			}
		}

		s, ok := firstFrom(st, cur.Index+1, 1)
		if !ok {
			return ErrNoCandidates
		}
		return m.apply(st, s)
	})
}

// Previous is the reverse of Next.
func (m *Manager) Previous() error {
	return m.update(func(st *state.State) error {
		if len(st.Candidates) == 0 {
			return ErrNoCandidates
		}
		if !started(st) {
			s, ok := firstFrom(st, len(st.Candidates)-1, -1)
			if !ok {
				return ErrNoCandidates
			}
			return m.apply(st, s)
		}

		cur := st.ActualWallpaper
		if cur.Child && !cur.Between {
			images, _ := expand(st.Candidates[cur.Index])
			prev := cur.SubIndex - 1
			if prev >= len(images) {
				prev = len(images) - 1
			}
			if prev >= 0 {
				return m.apply(st, slot{index: cur.Index, child: true, subIndex: prev, path: images[prev]})
			}
		}

		s, ok := firstFrom(st, cur.Index-1, -1)
		if !ok {
			return ErrNoCandidates
		}
		return m.apply(st, s)
	})
}

// EnsureCurrent advances the cycle when the image on screen no longer exists
// on disk. It reports whether a change was made.
func (m *Manager) EnsureCurrent() (bool, error) {
	st, err := m.State()
	if err != nil {
		return false, err
	}
	if st.ActualWallpaper.Path == "" {
		return false, nil
	}
	if _, err := os.Stat(st.ActualWallpaper.Path); err == nil {
		return false, nil
	}
	log.Info("current wallpaper disappeared", logging.KeyPath, st.ActualWallpaper.Path)
	if err := m.Next(); err != nil {
		return false, err
	}
	return true, nil
}
