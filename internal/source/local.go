package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// localProvider mirrors a directory on a local or mounted filesystem.
type localProvider struct {
	basePath string
}

func newLocalProvider(basePath string) *localProvider {
	return &localProvider{basePath: filepath.Clean(basePath)}
}

func (p *localProvider) List(ctx context.Context) ([]Object, error) {
	info, err := os.Stat(p.basePath)
	if err != nil {
		return nil, fmt.Errorf("list file://%s: %w", filepath.ToSlash(p.basePath), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", p.basePath)
	}

	var objects []Object
	walkErr := filepath.WalkDir(p.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(p.basePath, path)
		if err != nil {
			return err
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: filepath.ToSlash(rel), Size: fi.Size()})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("list file://%s: %w", filepath.ToSlash(p.basePath), walkErr)
	}
	return objects, nil
}

func (p *localProvider) Download(_ context.Context, key string, dst *os.File) error {
	if key == "" {
		return errors.New("empty object key")
	}
	srcPath, err := containedPath(p.basePath, key)
	if err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", key, err)
	}
	return nil
}

func (p *localProvider) Close() error { return nil }
