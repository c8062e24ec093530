package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/breeze-rmm/dailywall/internal/httputil"
)

// maxImageBytes bounds a single HTTP download.
const maxImageBytes = 64 << 20

// httpProvider mirrors a single image URL.
type httpProvider struct {
	client *http.Client
	url    string
	key    string
	retry  httputil.RetryConfig
}

func newHTTPProvider(u URI, client *http.Client) *httpProvider {
	return &httpProvider{
		client: client,
		url:    u.Raw,
		key:    path.Base(u.Prefix),
		retry:  httputil.DefaultRetryConfig(),
	}
}

func (p *httpProvider) List(context.Context) ([]Object, error) {
	return []Object{{Key: p.key, Size: -1}}, nil
}

func (p *httpProvider) Download(ctx context.Context, key string, dst *os.File) error {
	if key != p.key {
		return fmt.Errorf("%s: unknown object %q", p.url, key)
	}
	resp, err := httputil.Get(ctx, p.client, p.url, http.Header{"User-Agent": {"dailywall"}}, p.retry)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &httputil.StatusError{StatusCode: resp.StatusCode, URL: p.url}
	}
	n, err := io.Copy(dst, io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return fmt.Errorf("download %s: %w", p.url, err)
	}
	if n > maxImageBytes {
		return fmt.Errorf("download %s: image larger than %d bytes", p.url, maxImageBytes)
	}
	return nil
}

func (p *httpProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
