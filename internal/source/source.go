// Package source mirrors remote wallpaper collections into a local cache
// directory so the cycle can treat them like any other directory candidate.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/breeze-rmm/dailywall/internal/config"
	"github.com/breeze-rmm/dailywall/internal/logging"
)

var log = logging.L("source")

var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// Schemes understood by Open.
const (
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "az"
	SchemeB2    = "b2"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFile  = "file"
)

// URI is a parsed source location. Bucket is the bucket or container (the
// host for http), Prefix the object key prefix (the path for http and file).
type URI struct {
	Raw    string
	Scheme string
	Bucket string
	Prefix string
}

func (u URI) String() string { return u.Raw }

// IsRemote reports whether s looks like a source URI rather than a path.
// Windows drive letters ("C:\...") are paths.
func IsRemote(s string) bool {
	i := strings.Index(s, "://")
	return i > 1
}

// ParseURI parses s3://, gs://, az://, b2://, http(s):// and file:// URIs.
func ParseURI(raw string) (URI, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URI{}, fmt.Errorf("parse source %q: %w", raw, err)
	}
	u := URI{Raw: raw, Scheme: strings.ToLower(parsed.Scheme)}

	switch u.Scheme {
	case SchemeS3, SchemeGCS, SchemeAzure, SchemeB2:
		if parsed.Host == "" {
			return URI{}, fmt.Errorf("source %q: missing bucket", raw)
		}
		u.Bucket = parsed.Host
		u.Prefix = strings.TrimPrefix(parsed.Path, "/")
	case SchemeHTTP, SchemeHTTPS:
		if parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
			return URI{}, fmt.Errorf("source %q: expected a URL to an image", raw)
		}
		u.Bucket = parsed.Host
		u.Prefix = strings.TrimPrefix(parsed.Path, "/")
	case SchemeFile:
		p := parsed.Path
		if p == "" {
			return URI{}, fmt.Errorf("source %q: missing path", raw)
		}
		// file:///C:/walls on Windows
		if len(p) > 2 && p[0] == '/' && p[2] == ':' {
			p = p[1:]
		}
		u.Prefix = filepath.FromSlash(p)
	default:
		return URI{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// Object is a listed remote file. Size is -1 when the backend does not
// report it cheaply.
type Object struct {
	Key  string
	Size int64
}

// Provider lists and fetches the objects of one source.
type Provider interface {
	List(ctx context.Context) ([]Object, error)
	Download(ctx context.Context, key string, dst *os.File) error
	Close() error
}

// Options carries the credentials and client settings for every backend.
type Options struct {
	S3          config.S3Config
	GCS         config.GCSConfig
	Azure       config.AzureConfig
	B2          config.B2Config
	HTTPTimeout time.Duration
}

// OptionsFromConfig extracts the source settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		S3:          cfg.S3,
		GCS:         cfg.GCS,
		Azure:       cfg.Azure,
		B2:          cfg.B2,
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}
}

// Open returns the Provider for u.
func Open(ctx context.Context, u URI, opts Options) (Provider, error) {
	switch u.Scheme {
	case SchemeS3:
		return newS3Provider(ctx, u, opts.S3)
	case SchemeGCS:
		return newGCSProvider(ctx, u, opts.GCS)
	case SchemeAzure:
		return newAzureProvider(u, opts.Azure)
	case SchemeB2:
		return newB2Provider(ctx, u, opts.B2)
	case SchemeHTTP, SchemeHTTPS:
		return newHTTPProvider(u, &http.Client{Timeout: opts.HTTPTimeout}), nil
	case SchemeFile:
		return newLocalProvider(u.Prefix), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImageKey reports whether key has an image file extension.
func IsImageKey(key string) bool {
	return imageExts[strings.ToLower(path.Ext(key))]
}

// containedPath ensures that the resolved path stays within basePath.
// Returns the safe absolute path or an error if path traversal is detected.
func containedPath(basePath, untrustedPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	joined := filepath.Join(absBase, filepath.FromSlash(untrustedPath))
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) && absJoined != absBase {
		return "", fmt.Errorf("path traversal detected: %q resolves outside base %q", untrustedPath, absBase)
	}
	return absJoined, nil
}
