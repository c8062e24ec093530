package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/breeze-rmm/dailywall/internal/config"
)

type gcsProvider struct {
	client *storage.Client
	bucket string
	prefix string
}

func newGCSProvider(ctx context.Context, u URI, cfg config.GCSConfig) (*gcsProvider, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Anonymous:
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsProvider{client: client, bucket: u.Bucket, prefix: u.Prefix}, nil
}

func (p *gcsProvider) List(ctx context.Context) ([]Object, error) {
	it := p.client.Bucket(p.bucket).Objects(ctx, &storage.Query{Prefix: p.prefix})

	var objects []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", p.bucket, p.prefix, err)
		}
		objects = append(objects, Object{Key: attrs.Name, Size: attrs.Size})
	}
	return objects, nil
}

func (p *gcsProvider) Download(ctx context.Context, key string, dst *os.File) error {
	r, err := p.client.Bucket(p.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open gs://%s/%s: %w", p.bucket, key, err)
	}
	defer r.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("download gs://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

func (p *gcsProvider) Close() error {
	return p.client.Close()
}
