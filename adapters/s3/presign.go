package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
)

const metadataHeaderPrefix = "x-amz-meta-"

// Provider implements presignx.Provider for S3 and S3-compatible services
type Provider struct {
	name    presignx.ProviderName
	client  *ClientManager
	planner *presignx.Planner
	logger  logx.Logger
	inst    *presignx.Instrumenter
}

var _ presignx.Provider = (*Provider)(nil)

// New creates an S3 provider. expiration is the configured default lifetime
// of generated URLs.
func New(ctx context.Context, cfg *presignx.AWSConfig, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	return newProvider(ctx, presignx.ProviderAWS, cfg, expiration, options...)
}

// NewDigitalOcean creates a provider for DigitalOcean Spaces by translating
// its configuration into the S3 shape
func NewDigitalOcean(ctx context.Context, cfg *presignx.DigitalOceanConfig, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return newProvider(ctx, presignx.ProviderDigitalOcean, cfg.ToAWS(), expiration, options...)
}

func newProvider(ctx context.Context, name presignx.ProviderName, cfg *presignx.AWSConfig, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	opts := presignx.ResolveOptions(options...)

	cm, err := NewClientManager(ctx, ClientConfig{
		Config: cfg,
		Logger: opts.GetLogger(),
	})
	if err != nil {
		return nil, &presignx.ProviderError{Provider: name, Op: "init", Err: err}
	}

	return NewWithClient(name, cm, expiration, options...), nil
}

// NewWithClient creates a provider around an existing client manager
func NewWithClient(name presignx.ProviderName, cm *ClientManager, expiration time.Duration, options ...presignx.Option) *Provider {
	opts := presignx.ResolveOptions(options...)
	return &Provider{
		name:    name,
		client:  cm,
		planner: presignx.NewPlanner(expiration, options...),
		logger:  opts.GetLogger(),
		inst:    opts.GetInstrumenter(),
	}
}

// Name returns the provider identity the adapter was built for
func (p *Provider) Name() presignx.ProviderName {
	return p.name
}

// Endpoint returns the custom endpoint URL, empty for AWS itself
func (p *Provider) Endpoint() string {
	return p.client.GetConfig().GetEndpointURL()
}

// Bucket returns the bucket URLs are signed for
func (p *Provider) Bucket() string {
	return p.client.GetConfig().Bucket
}

// GeneratePresignedURL signs req with the S3 presign client
func (p *Provider) GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	plan := p.planner.Plan(req, opts)

	p.logger.Debug("Generating presigned URL", presignx.ArgsToFields(
		"provider", p.name,
		"method", plan.Method,
		"key", plan.Key,
		"expiry", plan.Expiration,
	)...)

	var resp *presignx.Response
	err := p.inst.TraceOperation(ctx, "presign", p.name, plan.Key, func(ctx context.Context) error {
		var err error
		resp, err = p.sign(ctx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.inst.RecordPresignOperation(p.name, plan.Method)
	p.inst.RecordExpiration(p.name, plan.Expiration)

	p.logger.Debug("Presigned URL generated successfully", presignx.ArgsToFields(
		"provider", p.name,
		"method", plan.Method,
		"key", plan.Key,
		"expires_at", resp.ExpiresAt,
	)...)

	return resp, nil
}

func (p *Provider) sign(ctx context.Context, plan *presignx.Plan) (*presignx.Response, error) {
	bucket := aws.String(p.Bucket())
	key := aws.String(plan.Key)
	expires := func(o *s3.PresignOptions) {
		o.Expires = plan.Expiration
	}

	switch plan.Method {
	case presignx.MethodGet:
		out, err := p.client.GetPresignClient().PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: bucket,
			Key:    key,
		}, expires)
		if err != nil {
			return nil, MapS3Error(err, p.name, "presign_get", plan.Key)
		}
		return plan.Response(out.URL, nil), nil

	case presignx.MethodPut:
		input := &s3.PutObjectInput{
			Bucket: bucket,
			Key:    key,
		}
		if plan.ContentType != "" {
			input.ContentType = aws.String(plan.ContentType)
		}
		if len(plan.Metadata) > 0 {
			input.Metadata = plan.Metadata
		}

		out, err := p.client.GetPresignClient().PresignPutObject(ctx, input, expires)
		if err != nil {
			return nil, MapS3Error(err, p.name, "presign_put", plan.Key)
		}
		return plan.Response(out.URL, plan.MetadataHeaders(metadataHeaderPrefix)), nil

	case presignx.MethodPost:
		input := &s3.PutObjectInput{
			Bucket: bucket,
			Key:    key,
		}
		if plan.ContentType != "" {
			input.ContentType = aws.String(plan.ContentType)
		}
		if len(plan.Metadata) > 0 {
			input.Metadata = plan.Metadata
		}

		extra := postFields(plan)
		out, err := p.client.GetPresignClient().PresignPostObject(ctx, input, func(o *s3.PresignPostOptions) {
			o.Expires = plan.Expiration
			for k, v := range extra {
				o.Conditions = append(o.Conditions, map[string]string{k: v})
			}
		})
		if err != nil {
			return nil, MapS3Error(err, p.name, "presign_post", plan.Key)
		}

		// form uploads carry the content type and metadata as fields
		resp := plan.Response(out.URL, nil)
		resp.Headers = map[string]string{}
		resp.Fields = make(map[string]string, len(out.Values)+len(extra))
		for k, v := range extra {
			resp.Fields[k] = v
		}
		for k, v := range out.Values {
			resp.Fields[k] = v
		}
		return resp, nil

	case presignx.MethodDelete:
		out, err := p.client.GetPresignClient().PresignDeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: bucket,
			Key:    key,
		}, expires)
		if err != nil {
			return nil, MapS3Error(err, p.name, "presign_delete", plan.Key)
		}
		return plan.Response(out.URL, nil), nil
	}

	return nil, &presignx.ProviderError{
		Provider: p.name,
		Op:       "presign",
		Key:      plan.Key,
		Err:      fmt.Errorf("%w: %s", presignx.ErrUnsupportedMethod, plan.Method),
	}
}

// postFields returns the form fields a browser upload must echo back. Each
// one is also added to the policy as an exact-match condition.
func postFields(plan *presignx.Plan) map[string]string {
	fields := make(map[string]string, len(plan.Metadata)+1)
	if plan.ContentType != "" {
		fields["Content-Type"] = plan.ContentType
	}
	for k, v := range plan.MetadataHeaders(metadataHeaderPrefix) {
		fields[k] = v
	}
	return fields
}

// MakeFilePublic grants public read access to key via its object ACL
func (p *Provider) MakeFilePublic(ctx context.Context, key string) error {
	p.logger.Debug("Making object public", presignx.ArgsToFields("provider", p.name, "key", key)...)

	err := p.inst.TraceOperation(ctx, "make_public", p.name, key, func(ctx context.Context) error {
		_, err := p.client.GetS3Client().PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(p.Bucket()),
			Key:    aws.String(key),
			ACL:    types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			return MapS3Error(err, p.name, "make_public", key)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("Failed to make object public", presignx.ArgsToFields(
			"provider", p.name,
			"key", key,
			"error", err,
		)...)
		return err
	}

	p.inst.RecordPublicOperation(p.name)
	return nil
}
