package presignx

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cast"
)

// environment mirrors the process environment surface. Every field is read as
// a string so that malformed numbers fall back to defaults instead of failing
// the whole load.
type environment struct {
	Provider   string `env:"CLOUD_PROVIDER"`
	Expiration string `env:"PRESIGN_EXPIRATION"`
	Region     string `env:"CLOUD_REGION"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSBucket          string `env:"AWS_BUCKET_NAME"`
	AWSEndpoint        string `env:"AWS_ENDPOINT"`
	AWSForcePathStyle  string `env:"AWS_FORCE_PATH_STYLE"`
	AWSRoleARN         string `env:"AWS_ROLE_ARN"`
	AWSExternalID      string `env:"AWS_EXTERNAL_ID"`

	GCPProjectID   string `env:"GCP_PROJECT_ID"`
	GCPKeyFilename string `env:"GCP_KEY_FILENAME"`
	GCPBucket      string `env:"GCP_BUCKET_NAME"`

	AzureAccountName      string `env:"AZURE_STORAGE_ACCOUNT_NAME"`
	AzureAccountKey       string `env:"AZURE_STORAGE_ACCOUNT_KEY"`
	AzureConnectionString string `env:"AZURE_STORAGE_CONNECTION_STRING"`
	AzureContainer        string `env:"AZURE_STORAGE_CONTAINER_NAME"`

	DOAccessKeyID     string `env:"DO_SPACES_ACCESS_KEY_ID"`
	DOSecretAccessKey string `env:"DO_SPACES_SECRET_ACCESS_KEY"`
	DORegion          string `env:"DO_SPACES_REGION"`
	DOBucket          string `env:"DO_SPACES_BUCKET_NAME"`
	DOEndpoint        string `env:"DO_SPACES_ENDPOINT"`
}

// LoadConfig reads the process environment and returns a validated
// configuration. It is called once per facade call; nothing is cached.
func LoadConfig() (*Config, error) {
	var env environment
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read environment: %w", err)}
	}

	cfg, err := env.config()
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// maxExpirationSeconds keeps the duration multiplication from overflowing
const maxExpirationSeconds = math.MaxInt64 / int64(time.Second)

// ParseExpiration converts a decimal seconds value into a duration. Leading
// zeros are ignored. Empty, non-decimal and non-positive values yield
// DefaultExpiration.
func ParseExpiration(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.IndexFunc(raw, isNotDigit) >= 0 {
		return DefaultExpiration
	}
	// cast parses with base 0, so a leading zero would select octal
	secs, err := cast.ToInt64E(strings.TrimLeft(raw, "0"))
	if err != nil || secs <= 0 || secs > maxExpirationSeconds {
		return DefaultExpiration
	}
	return time.Duration(secs) * time.Second
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}

func parseBool(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return cast.ToBool(raw)
}

func (e *environment) config() (*Config, error) {
	provider := ProviderName(strings.TrimSpace(e.Provider))
	if provider == "" {
		provider = DefaultProvider
	}
	if !provider.IsValid() {
		return nil, &ConfigError{
			Provider: provider,
			Err: fmt.Errorf("%w: %q, supported providers are: %s",
				ErrUnsupportedProvider, provider, joinProviders(SupportedProviders())),
		}
	}

	cfg := &Config{
		Provider:   provider,
		Expiration: ParseExpiration(e.Expiration),
		Region:     e.Region,
	}

	switch provider {
	case ProviderAWS:
		cfg.AWS = &AWSConfig{
			AccessKeyID:     e.AWSAccessKeyID,
			SecretAccessKey: e.AWSSecretAccessKey,
			SessionToken:    e.AWSSessionToken,
			Region:          firstNonEmpty(e.AWSRegion, e.Region),
			Bucket:          e.AWSBucket,
			Endpoint:        e.AWSEndpoint,
			UsePathStyle:    parseBool(e.AWSForcePathStyle),
			RoleARN:         e.AWSRoleARN,
			ExternalID:      e.AWSExternalID,
		}
	case ProviderGCP:
		cfg.GCP = &GCPConfig{
			ProjectID:   e.GCPProjectID,
			KeyFilename: e.GCPKeyFilename,
			Bucket:      e.GCPBucket,
		}
	case ProviderAzure:
		cfg.Azure = &AzureConfig{
			AccountName:      e.AzureAccountName,
			AccountKey:       e.AzureAccountKey,
			ConnectionString: e.AzureConnectionString,
			Container:        e.AzureContainer,
		}
	case ProviderDigitalOcean:
		cfg.DigitalOcean = &DigitalOceanConfig{
			AccessKeyID:     e.DOAccessKeyID,
			SecretAccessKey: e.DOSecretAccessKey,
			Region:          firstNonEmpty(e.DORegion, e.Region),
			Bucket:          e.DOBucket,
			Endpoint:        e.DOEndpoint,
		}
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinProviders(providers []ProviderName) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
