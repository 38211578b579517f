// Package gcs implements presignx.Provider for Google Cloud Storage using V4
// signed URLs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const metadataHeaderPrefix = "x-goog-meta-"

// ClientFactory builds the storage client used for ACL changes
type ClientFactory func(ctx context.Context) (*storage.Client, error)

// Provider implements presignx.Provider for Google Cloud Storage
type Provider struct {
	cfg           *presignx.GCPConfig
	accessID      string
	privateKey    []byte
	clientFactory ClientFactory
	planner       *presignx.Planner
	logger        logx.Logger
	inst          *presignx.Instrumenter
}

var _ presignx.Provider = (*Provider)(nil)

// New creates a GCS provider from a service account key file. Signing uses the
// key's e-mail and private key; the storage client is only created when an
// ACL change is requested.
func New(ctx context.Context, cfg *presignx.GCPConfig, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	keyJSON, err := os.ReadFile(cfg.KeyFilename)
	if err != nil {
		return nil, &presignx.ProviderError{
			Provider: presignx.ProviderGCP,
			Op:       "init",
			Err:      fmt.Errorf("read key file: %w", err),
		}
	}

	return NewWithClientFactory(cfg, keyJSON, func(ctx context.Context) (*storage.Client, error) {
		return storage.NewClient(ctx, option.WithCredentialsJSON(keyJSON))
	}, expiration, options...)
}

// NewWithClientFactory creates a provider from service account key JSON and a
// custom client factory (used by tests to point at a fake server)
func NewWithClientFactory(cfg *presignx.GCPConfig, keyJSON []byte, factory ClientFactory, expiration time.Duration, options ...presignx.Option) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	jwtCfg, err := google.JWTConfigFromJSON(keyJSON)
	if err != nil {
		return nil, &presignx.ProviderError{
			Provider: presignx.ProviderGCP,
			Op:       "init",
			Err:      fmt.Errorf("parse service account key: %w", err),
		}
	}
	if jwtCfg.Email == "" || len(jwtCfg.PrivateKey) == 0 {
		return nil, &presignx.ProviderError{
			Provider: presignx.ProviderGCP,
			Op:       "init",
			Err:      errors.New("service account key has no client_email or private_key"),
		}
	}

	opts := presignx.ResolveOptions(options...)
	opts.GetLogger().Debug("Creating GCS provider", presignx.ArgsToFields(
		"bucket", cfg.Bucket,
		"project_id", cfg.ProjectID,
		"access_id", jwtCfg.Email,
	)...)

	return &Provider{
		cfg:           cfg,
		accessID:      jwtCfg.Email,
		privateKey:    jwtCfg.PrivateKey,
		clientFactory: factory,
		planner:       presignx.NewPlanner(expiration, options...),
		logger:        opts.GetLogger(),
		inst:          opts.GetInstrumenter(),
	}, nil
}

// Name returns presignx.ProviderGCP
func (p *Provider) Name() presignx.ProviderName {
	return presignx.ProviderGCP
}

// AccessID returns the service account e-mail URLs are signed with
func (p *Provider) AccessID() string {
	return p.accessID
}

// signedMethod maps the request method onto the GCS action. POST uploads
// are signed as a PUT write.
func signedMethod(m presignx.Method) (string, bool) {
	switch m {
	case presignx.MethodGet:
		return "GET", true
	case presignx.MethodPut, presignx.MethodPost:
		return "PUT", true
	case presignx.MethodDelete:
		return "DELETE", true
	}
	return "", false
}

// GeneratePresignedURL signs req with a V4 signature
func (p *Provider) GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	plan := p.planner.Plan(req, opts)

	method, ok := signedMethod(plan.Method)
	if !ok {
		return nil, &presignx.ProviderError{
			Provider: presignx.ProviderGCP,
			Op:       "presign",
			Key:      plan.Key,
			Err:      fmt.Errorf("%w: %s", presignx.ErrUnsupportedMethod, plan.Method),
		}
	}

	var resp *presignx.Response
	err := p.inst.TraceOperation(ctx, "presign", presignx.ProviderGCP, plan.Key, func(ctx context.Context) error {
		signOpts := &storage.SignedURLOptions{
			GoogleAccessID: p.accessID,
			PrivateKey:     p.privateKey,
			Method:         method,
			Expires:        plan.IssuedAt.Add(plan.Expiration),
			Scheme:         storage.SigningSchemeV4,
		}

		var extra map[string]string
		if plan.Method.IsWrite() {
			signOpts.ContentType = plan.ContentType
			extra = plan.MetadataHeaders(metadataHeaderPrefix)
			for k, v := range extra {
				signOpts.Headers = append(signOpts.Headers, k+":"+v)
			}
		}

		signed, err := storage.SignedURL(p.cfg.Bucket, plan.Key, signOpts)
		if err != nil {
			return &presignx.ProviderError{
				Provider: presignx.ProviderGCP,
				Op:       "presign",
				Key:      plan.Key,
				Err:      err,
			}
		}

		resp = plan.Response(signed, extra)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.inst.RecordPresignOperation(presignx.ProviderGCP, plan.Method)
	p.inst.RecordExpiration(presignx.ProviderGCP, plan.Expiration)

	p.logger.Debug("Presigned URL generated successfully", presignx.ArgsToFields(
		"provider", presignx.ProviderGCP,
		"method", plan.Method,
		"key", plan.Key,
	)...)

	return resp, nil
}

// MakeFilePublic grants allUsers read access on the object ACL
func (p *Provider) MakeFilePublic(ctx context.Context, key string) error {
	err := p.inst.TraceOperation(ctx, "make_public", presignx.ProviderGCP, key, func(ctx context.Context) error {
		client, err := p.clientFactory(ctx)
		if err != nil {
			return &presignx.ProviderError{Provider: presignx.ProviderGCP, Op: "make_public", Key: key, Err: err}
		}
		defer client.Close()

		acl := client.Bucket(p.cfg.Bucket).Object(key).ACL()
		if err := acl.Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
			return mapError(err, "make_public", key)
		}
		return nil
	})
	if err != nil {
		p.logger.Warn("Failed to make object public", presignx.ArgsToFields(
			"provider", presignx.ProviderGCP,
			"key", key,
			"error", err,
		)...)
		return err
	}

	p.inst.RecordPublicOperation(presignx.ProviderGCP)
	return nil
}

func mapError(err error, op, key string) error {
	switch {
	case errors.Is(err, context.Canceled):
		err = fmt.Errorf("%w: %w", presignx.ErrAborted, err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", presignx.ErrTimeout, err)
	}
	return &presignx.ProviderError{Provider: presignx.ProviderGCP, Op: op, Key: key, Err: err}
}
