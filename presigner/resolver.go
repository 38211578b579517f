package presigner

import (
	"context"
	"fmt"

	"github.com/gostratum/presignx"
	"github.com/gostratum/presignx/adapters/azure"
	"github.com/gostratum/presignx/adapters/gcs"
	"github.com/gostratum/presignx/adapters/s3"
)

// Resolver builds the adapter selected by a configuration
type Resolver func(ctx context.Context, cfg *presignx.Config, options ...presignx.Option) (presignx.Provider, error)

// Resolve returns the adapter for cfg.Provider. The set of providers is
// closed; an unknown identifier is a configuration error.
func Resolve(ctx context.Context, cfg *presignx.Config, options ...presignx.Option) (presignx.Provider, error) {
	if cfg == nil {
		return nil, &presignx.ConfigError{Err: fmt.Errorf("configuration cannot be nil")}
	}

	switch cfg.Provider {
	case presignx.ProviderAWS:
		if cfg.AWS == nil {
			return nil, missingBlock(cfg.Provider)
		}
		return s3.New(ctx, cfg.AWS, cfg.Expiration, options...)

	case presignx.ProviderGCP:
		if cfg.GCP == nil {
			return nil, missingBlock(cfg.Provider)
		}
		return gcs.New(ctx, cfg.GCP, cfg.Expiration, options...)

	case presignx.ProviderAzure:
		if cfg.Azure == nil {
			return nil, missingBlock(cfg.Provider)
		}
		return azure.New(ctx, cfg.Azure, cfg.Expiration, options...)

	case presignx.ProviderDigitalOcean:
		if cfg.DigitalOcean == nil {
			return nil, missingBlock(cfg.Provider)
		}
		return s3.NewDigitalOcean(ctx, cfg.DigitalOcean, cfg.Expiration, options...)
	}

	return nil, &presignx.ConfigError{
		Provider: cfg.Provider,
		Err:      fmt.Errorf("%w: %q", presignx.ErrUnsupportedProvider, cfg.Provider),
	}
}

func missingBlock(provider presignx.ProviderName) error {
	return &presignx.ConfigError{
		Provider: provider,
		Err:      presignx.ErrMissingProviderConfig,
	}
}
