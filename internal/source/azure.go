package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/breeze-rmm/dailywall/internal/config"
)

// azureProvider reads az://<container>/<prefix>. The storage account comes
// from the connection string or, for public containers, the account URL.
type azureProvider struct {
	client    *azblob.Client
	container string
	prefix    string
}

func newAzureProvider(u URI, cfg config.AzureConfig) (*azureProvider, error) {
	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountURL != "":
		client, err = azblob.NewClientWithNoCredential(cfg.AccountURL, nil)
	default:
		return nil, errors.New("az:// sources need azure.connection_string or azure.account_url")
	}
	if err != nil {
		return nil, fmt.Errorf("create azure blob client: %w", err)
	}
	return &azureProvider{client: client, container: u.Bucket, prefix: u.Prefix}, nil
}

func (p *azureProvider) List(ctx context.Context) ([]Object, error) {
	pager := p.client.NewListBlobsFlatPager(p.container, &azblob.ListBlobsFlatOptions{
		Prefix: &p.prefix,
	})

	var objects []Object
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list az://%s/%s: %w", p.container, p.prefix, err)
		}
		if resp.Segment == nil {
			continue
		}
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			size := int64(-1)
			if item.Properties != nil && item.Properties.ContentLength != nil {
				size = *item.Properties.ContentLength
			}
			objects = append(objects, Object{Key: *item.Name, Size: size})
		}
	}
	return objects, nil
}

func (p *azureProvider) Download(ctx context.Context, key string, dst *os.File) error {
	if _, err := p.client.DownloadFile(ctx, p.container, key, dst, nil); err != nil {
		return fmt.Errorf("download az://%s/%s: %w", p.container, key, err)
	}
	return nil
}

func (p *azureProvider) Close() error { return nil }
