// Package azure implements presignx.Provider for Azure Blob Storage using
// service SAS tokens.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
)

const (
	metadataHeaderPrefix = "x-ms-meta-"
	blobTypeHeader       = "x-ms-blob-type"
	blockBlob            = "BlockBlob"
)

// Provider implements presignx.Provider for Azure Blob Storage
type Provider struct {
	cfg     *presignx.AzureConfig
	client  *container.Client
	planner *presignx.Planner
	logger  logx.Logger
	inst    *presignx.Instrumenter
}

var _ presignx.Provider = (*Provider)(nil)

// ClientOptions returns the container client options used by the adapter.
// Requests are attempted once.
func ClientOptions() *container.ClientOptions {
	return &container.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
}

// NewContainerClient builds the container client for cfg. A connection string
// takes precedence over the account name and key.
func NewContainerClient(cfg *presignx.AzureConfig) (*container.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.ConnectionString != "" {
		return container.NewClientFromConnectionString(cfg.ConnectionString, cfg.Container, ClientOptions())
	}

	cred, err := container.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid shared key credential: %w", err)
	}
	containerURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s", cfg.AccountName, cfg.Container)
	return container.NewClientWithSharedKeyCredential(containerURL, cred, ClientOptions())
}

// New creates an Azure provider. No network call is made.
func New(ctx context.Context, cfg *presignx.AzureConfig, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	cc, err := NewContainerClient(cfg)
	if err != nil {
		return nil, &presignx.ProviderError{Provider: presignx.ProviderAzure, Op: "init", Err: err}
	}
	return NewWithClient(cfg, cc, expiration, options...), nil
}

// NewWithClient creates a provider around an existing container client
func NewWithClient(cfg *presignx.AzureConfig, cc *container.Client, expiration time.Duration, options ...presignx.Option) *Provider {
	opts := presignx.ResolveOptions(options...)
	opts.GetLogger().Debug("Creating Azure provider", presignx.ArgsToFields(
		"container", cfg.Container,
		"account", cfg.AccountName,
		"connection_string_set", cfg.ConnectionString != "",
	)...)

	return &Provider{
		cfg:     cfg,
		client:  cc,
		planner: presignx.NewPlanner(expiration, options...),
		logger:  opts.GetLogger(),
		inst:    opts.GetInstrumenter(),
	}
}

// Name returns presignx.ProviderAzure
func (p *Provider) Name() presignx.ProviderName {
	return presignx.ProviderAzure
}

// ContainerURL returns the URL of the configured container
func (p *Provider) ContainerURL() string {
	return p.client.URL()
}

// blobURL is the unsigned URL of key. Path separators stay literal; the SDK
// escapes them when it builds blob clients.
func (p *Provider) blobURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(p.ContainerURL(), "/") + "/" + strings.Join(segments, "/")
}

func permissions(m presignx.Method) (sas.BlobPermissions, bool) {
	switch m {
	case presignx.MethodGet:
		return sas.BlobPermissions{Read: true}, true
	case presignx.MethodPut, presignx.MethodPost:
		return sas.BlobPermissions{Create: true, Write: true}, true
	case presignx.MethodDelete:
		return sas.BlobPermissions{Delete: true}, true
	}
	return sas.BlobPermissions{}, false
}

// GeneratePresignedURL issues a blob SAS URL scoped to the request method
func (p *Provider) GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	plan := p.planner.Plan(req, opts)

	perms, ok := permissions(plan.Method)
	if !ok {
		return nil, &presignx.ProviderError{
			Provider: presignx.ProviderAzure,
			Op:       "presign",
			Key:      plan.Key,
			Err:      fmt.Errorf("%w: %s", presignx.ErrUnsupportedMethod, plan.Method),
		}
	}

	var resp *presignx.Response
	err := p.inst.TraceOperation(ctx, "presign", presignx.ProviderAzure, plan.Key, func(ctx context.Context) error {
		start := plan.IssuedAt.UTC()
		signed, err := p.client.NewBlobClient(plan.Key).GetSASURL(perms, plan.IssuedAt.Add(plan.Expiration).UTC(), &blob.GetSASURLOptions{
			StartTime: &start,
		})
		if err != nil {
			return &presignx.ProviderError{
				Provider: presignx.ProviderAzure,
				Op:       "presign",
				Key:      plan.Key,
				Err:      err,
			}
		}

		var extra map[string]string
		if plan.Method.IsWrite() {
			extra = plan.MetadataHeaders(metadataHeaderPrefix)
			if extra == nil {
				extra = make(map[string]string, 1)
			}
			extra[blobTypeHeader] = blockBlob
		}

		resp = plan.Response(signed, extra)
		if plan.IsPublic {
			resp.URL = p.blobURL(plan.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.inst.RecordPresignOperation(presignx.ProviderAzure, plan.Method)
	p.inst.RecordExpiration(presignx.ProviderAzure, plan.Expiration)

	p.logger.Debug("Presigned URL generated successfully", presignx.ArgsToFields(
		"provider", presignx.ProviderAzure,
		"method", plan.Method,
		"key", plan.Key,
	)...)

	return resp, nil
}

// MakeFilePublic enables anonymous blob reads on the container. Azure has no
// per-blob ACL, so key is only used for logging and tracing.
func (p *Provider) MakeFilePublic(ctx context.Context, key string) error {
	err := p.inst.TraceOperation(ctx, "make_public", presignx.ProviderAzure, key, func(ctx context.Context) error {
		props, err := p.client.GetProperties(ctx, nil)
		if err != nil {
			return mapError(err, "make_public", key)
		}
		if props.BlobPublicAccess != nil && *props.BlobPublicAccess == container.PublicAccessTypeBlob {
			p.logger.Debug("Container already allows public blob reads", presignx.ArgsToFields("container", p.cfg.Container)...)
			return nil
		}

		_, err = p.client.SetAccessPolicy(ctx, &container.SetAccessPolicyOptions{
			Access: to.Ptr(container.PublicAccessTypeBlob),
		})
		if err != nil {
			return mapError(err, "make_public", key)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("Failed to make container public", presignx.ArgsToFields(
			"provider", presignx.ProviderAzure,
			"container", p.cfg.Container,
			"error", err,
		)...)
		return err
	}

	p.inst.RecordPublicOperation(presignx.ProviderAzure)
	return nil
}

func mapError(err error, op, key string) error {
	var respErr *azcore.ResponseError
	switch {
	case errors.Is(err, context.Canceled):
		err = fmt.Errorf("%w: %w", presignx.ErrAborted, err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", presignx.ErrTimeout, err)
	case errors.As(err, &respErr) && respErr.ErrorCode != "":
		err = fmt.Errorf("%s: %w", respErr.ErrorCode, err)
	}
	return &presignx.ProviderError{Provider: presignx.ProviderAzure, Op: op, Key: key, Err: err}
}
