package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Backblaze/blazer/b2"

	"github.com/breeze-rmm/dailywall/internal/config"
)

// b2Provider reads a Backblaze B2 bucket. Listing does not report sizes, so
// files already mirrored are not fetched again.
type b2Provider struct {
	bucket *b2.Bucket
	name   string
	prefix string
}

func newB2Provider(ctx context.Context, u URI, cfg config.B2Config) (*b2Provider, error) {
	if cfg.AccountID == "" || cfg.ApplicationKey == "" {
		return nil, errors.New("b2:// sources need b2.account_id and b2.application_key")
	}
	client, err := b2.NewClient(ctx, cfg.AccountID, cfg.ApplicationKey)
	if err != nil {
		return nil, fmt.Errorf("create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, u.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open b2 bucket %s: %w", u.Bucket, err)
	}
	return &b2Provider{bucket: bucket, name: u.Bucket, prefix: u.Prefix}, nil
}

func (p *b2Provider) List(ctx context.Context) ([]Object, error) {
	it := p.bucket.List(ctx, b2.ListPrefix(p.prefix))

	var objects []Object
	for it.Next() {
		objects = append(objects, Object{Key: it.Object().Name(), Size: -1})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list b2://%s/%s: %w", p.name, p.prefix, err)
	}
	return objects, nil
}

func (p *b2Provider) Download(ctx context.Context, key string, dst *os.File) error {
	r := p.bucket.Object(key).NewReader(ctx)
	defer r.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("download b2://%s/%s: %w", p.name, key, err)
	}
	return nil
}

func (p *b2Provider) Close() error { return nil }
