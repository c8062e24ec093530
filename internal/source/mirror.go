package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/breeze-rmm/dailywall/internal/logging"
	"github.com/breeze-rmm/dailywall/internal/workerpool"
)

// OpenFunc opens the provider for a parsed URI.
type OpenFunc func(ctx context.Context, u URI) (Provider, error)

// Mirror copies the images of a source into <cacheDir>/<scheme>/<bucket>/<prefix>.
// Object keys below the prefix are flattened into that one directory.
type Mirror struct {
	cacheDir  string
	workers   int
	queueSize int
	open      OpenFunc
}

// NewMirror returns a Mirror that opens providers with opts.
func NewMirror(cacheDir string, opts Options, workers, queueSize int) *Mirror {
	return NewMirrorWithOpener(cacheDir, workers, queueSize, func(ctx context.Context, u URI) (Provider, error) {
		return Open(ctx, u, opts)
	})
}

// NewMirrorWithOpener is NewMirror with a custom provider factory.
func NewMirrorWithOpener(cacheDir string, workers, queueSize int, open OpenFunc) *Mirror {
	return &Mirror{cacheDir: cacheDir, workers: workers, queueSize: queueSize, open: open}
}

// Result summarises one Sync.
type Result struct {
	URI        string
	Dir        string
	Downloaded int
	Skipped    int
	Removed    int
	SyncedAt   time.Time
}

// Dir returns the local mirror directory for u.
func (m *Mirror) Dir(u URI) (string, error) {
	var rel string
	switch u.Scheme {
	case SchemeFile:
		rel = path.Join(u.Scheme, strings.TrimLeft(filepath.ToSlash(filepath.Clean(u.Prefix)), "/"))
	default:
		if hasDotDot(u.Bucket) || hasDotDot(u.Prefix) {
			return "", fmt.Errorf("source %q: path traversal in mirror location", u.Raw)
		}
		rel = path.Join(u.Scheme, u.Bucket, u.Prefix)
	}
	return containedPath(m.cacheDir, strings.ReplaceAll(rel, ":", "_"))
}

// Sync mirrors every image of the source at raw. Images that disappeared
// from the source are removed from the mirror. Per-file failures are joined;
// files that did download are kept.
func (m *Mirror) Sync(ctx context.Context, raw string) (Result, error) {
	u, err := ParseURI(raw)
	if err != nil {
		return Result{}, err
	}
	dir, err := m.Dir(u)
	if err != nil {
		return Result{}, err
	}
	res := Result{URI: raw, Dir: dir}

	provider, err := m.open(ctx, u)
	if err != nil {
		return res, err
	}
	defer provider.Close()

	objects, err := provider.List(ctx)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create mirror directory: %w", err)
	}

	start := time.Now()
	wanted := make(map[string]bool)
	var (
		mu   sync.Mutex
		errs []error
	)
	pool := workerpool.New(m.workers, m.queueSize)

	for _, obj := range objects {
		if !IsImageKey(obj.Key) {
			continue
		}
		rel := relativeKey(u.Prefix, obj.Key)
		var (
			local string
			err   error
		)
		if hasDotDot(rel) {
			err = fmt.Errorf("%s: object key escapes the mirror directory", obj.Key)
		} else {
			local, err = containedPath(dir, flatName(rel))
		}
		if err == nil && wanted[local] {
			err = fmt.Errorf("%s: mirrored name %s already taken by another object", obj.Key, filepath.Base(local))
		}
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			continue
		}
		wanted[local] = true

		if upToDate(local, obj.Size) {
			res.Skipped++
			continue
		}

		obj := obj
		ok := pool.SubmitWait(ctx, func(context.Context) {
			err := fetch(ctx, provider, obj.Key, local)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			res.Downloaded++
		})
		if !ok {
			break
		}
	}
	// Downloads observe ctx themselves; wait for them even when it is done.
	pool.Shutdown(context.WithoutCancel(ctx))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Removed = prune(dir, wanted)
	res.SyncedAt = time.Now().UTC()

	log.Info("source mirrored",
		logging.KeySource, raw,
		logging.KeyPath, dir,
		"downloaded", res.Downloaded,
		"skipped", res.Skipped,
		"removed", res.Removed,
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)

	if len(errs) > 0 {
		return res, fmt.Errorf("mirror %s: %w", raw, errors.Join(errs...))
	}
	return res, nil
}

// Purge deletes the mirror directory of raw.
func (m *Mirror) Purge(raw string) error {
	u, err := ParseURI(raw)
	if err != nil {
		return err
	}
	dir, err := m.Dir(u)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove mirror %s: %w", dir, err)
	}
	return nil
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// relativeKey is key below prefix. A prefix naming a single object keeps
// that object's base name.
func relativeKey(prefix, key string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
	if rel == "" {
		return path.Base(key)
	}
	return rel
}

// flatName maps a relative key onto a single file name, so a collection
// laid out in folders mirrors into one directory the cycle can list.
// "nature/a.png" becomes "nature_a.png".
func flatName(rel string) string {
	return strings.ReplaceAll(strings.Trim(rel, "/"), "/", "_")
}

// upToDate reports whether local already holds an object of size bytes.
// An unknown size (-1) trusts any existing file.
func upToDate(local string, size int64) bool {
	fi, err := os.Stat(local)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return size < 0 || fi.Size() == size
}

// fetch downloads key next to local and renames it into place, so a failed
// download never leaves a truncated image behind.
func fetch(ctx context.Context, p Provider, key, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), ".dw-download-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	dlErr := p.Download(ctx, key, tmp)
	closeErr := tmp.Close()
	if dlErr == nil {
		dlErr = closeErr
	}
	if dlErr == nil {
		dlErr = os.Rename(tmpName, local)
	}
	if dlErr != nil {
		_ = os.Remove(tmpName)
		return dlErr
	}
	return nil
}

// prune removes mirrored images that are no longer wanted, plus leftover
// temp files. It returns how many images were removed.
func prune(dir string, wanted map[string]bool) int {
	removed := 0
	_ = filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		name := entry.Name()
		switch {
		case strings.HasPrefix(name, ".dw-download-"):
			_ = os.Remove(p)
		case IsImageKey(name) && !wanted[p]:
			if err := os.Remove(p); err == nil {
				removed++
			} else {
				log.Warn("failed to prune mirrored image", logging.KeyPath, p, logging.KeyError, err)
			}
		}
		return nil
	})
	return removed
}
