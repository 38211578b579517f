// Package presigner is the entry point of presignx: it validates a request,
// loads the configuration, resolves the configured backend adapter and
// delegates to it. Every call builds its own adapter, so a Presigner holds no
// connection state and is safe for concurrent use.
package presigner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
)

// ConfigLoader produces the configuration for a single call
type ConfigLoader func() (*presignx.Config, error)

// Presigner generates presigned URLs against the configured backend
type Presigner struct {
	loader       ConfigLoader
	resolver     Resolver
	logger       logx.Logger
	instrumenter *presignx.Instrumenter
	providerOpts []presignx.Option
}

// Option configures a Presigner
type Option func(*Presigner)

// WithConfigLoader sets the configuration source. The default reads the
// process environment on every call.
func WithConfigLoader(loader ConfigLoader) Option {
	return func(p *Presigner) {
		p.loader = loader
	}
}

// WithConfig uses a fixed configuration. It is validated on every call.
func WithConfig(cfg *presignx.Config) Option {
	return WithConfigLoader(func() (*presignx.Config, error) {
		if err := presignx.ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// WithResolver replaces the adapter resolver (useful for testing)
func WithResolver(resolver Resolver) Option {
	return func(p *Presigner) {
		p.resolver = resolver
	}
}

// WithLogger sets the logger used by the Presigner and its adapters
func WithLogger(logger logx.Logger) Option {
	return func(p *Presigner) {
		p.logger = logger
	}
}

// WithInstrumenter enables metrics and tracing in the adapters
func WithInstrumenter(inst *presignx.Instrumenter) Option {
	return func(p *Presigner) {
		p.instrumenter = inst
	}
}

// WithProviderOptions passes extra options to every adapter, e.g. a clock or
// a key generator
func WithProviderOptions(options ...presignx.Option) Option {
	return func(p *Presigner) {
		p.providerOpts = append(p.providerOpts, options...)
	}
}

// New creates a Presigner
func New(options ...Option) *Presigner {
	p := &Presigner{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.loader == nil {
		p.loader = presignx.LoadConfig
	}
	if p.resolver == nil {
		p.resolver = Resolve
	}
	if p.logger == nil {
		p.logger = logx.NewNoopLogger()
	}
	return p
}

func (p *Presigner) adapterOptions() []presignx.Option {
	opts := []presignx.Option{presignx.WithLogger(p.logger)}
	if p.instrumenter != nil {
		opts = append(opts, presignx.WithInstrumenter(p.instrumenter))
	}
	return append(opts, p.providerOpts...)
}

func (p *Presigner) provider(ctx context.Context) (presignx.Provider, *presignx.Config, error) {
	cfg, err := p.loader()
	if err != nil {
		return nil, nil, err
	}
	provider, err := p.resolver(ctx, cfg, p.adapterOptions()...)
	if err != nil {
		return nil, cfg, err
	}
	return provider, cfg, nil
}

// GeneratePresignedURL validates req and signs it with the configured backend
func (p *Presigner) GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	requestID := uuid.NewString()
	start := time.Now()

	if err := presignx.ValidateRequest(req); err != nil {
		p.logger.Debug("Rejected presign request", presignx.ArgsToFields(
			"request_id", requestID,
			"error", err,
		)...)
		return nil, err
	}

	provider, cfg, err := p.provider(ctx)
	if err != nil {
		p.logger.Error("Failed to resolve provider", presignx.ArgsToFields(
			"request_id", requestID,
			"config", cfg,
			"error", err,
		)...)
		return nil, wrap("generate presigned URL", err)
	}

	resp, err := provider.GeneratePresignedURL(ctx, req, opts)
	if err != nil {
		p.logger.Error("Failed to generate presigned URL", presignx.ArgsToFields(
			"request_id", requestID,
			"provider", provider.Name(),
			"key", req.Key,
			"error", err,
		)...)
		return nil, wrap("generate presigned URL", err)
	}

	p.logger.Info("Presigned URL generated", presignx.ArgsToFields(
		"request_id", requestID,
		"provider", provider.Name(),
		"method", resp.Method,
		"key", resp.Key,
		"expires_at", resp.ExpiresAt,
		"duration", time.Since(start),
	)...)

	return resp, nil
}

// MakeFilePublic grants anonymous read access to key on the configured backend
func (p *Presigner) MakeFilePublic(ctx context.Context, key string) error {
	requestID := uuid.NewString()

	provider, cfg, err := p.provider(ctx)
	if err != nil {
		p.logger.Error("Failed to resolve provider", presignx.ArgsToFields(
			"request_id", requestID,
			"config", cfg,
			"error", err,
		)...)
		return wrap("make file public", err)
	}

	if err := provider.MakeFilePublic(ctx, key); err != nil {
		p.logger.Error("Failed to make file public", presignx.ArgsToFields(
			"request_id", requestID,
			"provider", provider.Name(),
			"key", key,
			"error", err,
		)...)
		return wrap("make file public", err)
	}

	p.logger.Info("File made public", presignx.ArgsToFields(
		"request_id", requestID,
		"provider", provider.Name(),
		"key", key,
	)...)
	return nil
}

// wrap leaves the typed presignx errors untouched and annotates anything else
func wrap(op string, err error) error {
	var (
		verr *presignx.ValidationError
		cerr *presignx.ConfigError
		perr *presignx.ProviderError
	)
	if errors.As(err, &verr) || errors.As(err, &cerr) || errors.As(err, &perr) {
		return err
	}
	return fmt.Errorf("presignx: failed to %s: %w", op, err)
}

// GeneratePresignedURL signs req using configuration from the environment
func GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	return New().GeneratePresignedURL(ctx, req, opts)
}

// MakeFilePublic makes key public using configuration from the environment
func MakeFilePublic(ctx context.Context, key string) error {
	return New().MakeFilePublic(ctx, key)
}
