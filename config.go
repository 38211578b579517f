package presignx

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultExpiration is used when PRESIGN_EXPIRATION is unset or unusable
	DefaultExpiration = 3600 * time.Second

	// DefaultProvider is used when CLOUD_PROVIDER is unset
	DefaultProvider = ProviderAWS

	redacted = "[redacted]"
)

// Config is the resolved, process-wide configuration for one call. Exactly
// one backend block matching Provider is populated.
type Config struct {
	// Provider selects the storage backend
	Provider ProviderName `yaml:"provider"`

	// Expiration is the default lifetime of generated URLs
	Expiration time.Duration `yaml:"expiration"`

	// Region is the fallback region for backends that need one
	Region string `yaml:"region"`

	AWS          *AWSConfig          `yaml:"aws,omitempty"`
	GCP          *GCPConfig          `yaml:"gcp,omitempty"`
	Azure        *AzureConfig        `yaml:"azure,omitempty"`
	DigitalOcean *DigitalOceanConfig `yaml:"digital_ocean,omitempty"`
}

// AWSConfig configures the S3 adapter
type AWSConfig struct {
	// AccessKeyID is the access key ID
	AccessKeyID string `yaml:"access_key_id"`

	// SecretAccessKey is the secret access key
	SecretAccessKey string `yaml:"secret_access_key"`

	// SessionToken is the temporary session token (optional)
	SessionToken string `yaml:"session_token"`

	// Region is the AWS region (e.g., "us-west-2")
	Region string `yaml:"region"`

	// Bucket is the storage bucket name
	Bucket string `yaml:"bucket"`

	// Endpoint is the custom endpoint URL for S3-compatible services.
	// Setting it forces path-style addressing.
	Endpoint string `yaml:"endpoint"`

	// UsePathStyle forces path-style addressing without a custom endpoint
	UsePathStyle bool `yaml:"use_path_style"`

	// RoleARN optionally specifies a role to assume via STS before signing
	RoleARN string `yaml:"role_arn"`

	// ExternalID is passed to STS AssumeRole when RoleARN is used
	ExternalID string `yaml:"external_id"`
}

// GCPConfig configures the Google Cloud Storage adapter
type GCPConfig struct {
	ProjectID   string `yaml:"project_id"`
	KeyFilename string `yaml:"key_filename"`
	Bucket      string `yaml:"bucket"`
}

// AzureConfig configures the Azure Blob Storage adapter. ConnectionString
// takes precedence over AccountName/AccountKey when set.
type AzureConfig struct {
	AccountName      string `yaml:"account_name"`
	AccountKey       string `yaml:"account_key"`
	ConnectionString string `yaml:"connection_string"`
	Container        string `yaml:"container"`
}

// DigitalOceanConfig configures DigitalOcean Spaces, served by the S3 adapter
type DigitalOceanConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`

	// Endpoint defaults to https://{region}.digitaloceanspaces.com
	Endpoint string `yaml:"endpoint"`
}

// SpacesEndpoint returns the default Spaces endpoint for a region
func SpacesEndpoint(region string) string {
	return fmt.Sprintf("https://%s.digitaloceanspaces.com", region)
}

// ToAWS translates the Spaces configuration into the S3 adapter's shape
func (c *DigitalOceanConfig) ToAWS() *AWSConfig {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = SpacesEndpoint(c.Region)
	}
	return &AWSConfig{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          c.Region,
		Bucket:          c.Bucket,
		Endpoint:        endpoint,
		UsePathStyle:    true,
	}
}

// DefaultConfig returns a configuration with defaults and no backend block
func DefaultConfig() *Config {
	return &Config{
		Provider:   DefaultProvider,
		Expiration: DefaultExpiration,
	}
}

// GetEndpointURL returns the full endpoint URL, adding https:// when the
// endpoint was given as a bare host
func (c *AWSConfig) GetEndpointURL() string {
	if c.Endpoint == "" {
		return ""
	}

	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return strings.TrimSuffix(c.Endpoint, "/")
	}

	return fmt.Sprintf("https://%s", strings.TrimSuffix(c.Endpoint, "/"))
}

// PathStyle reports whether path-style addressing is required
func (c *AWSConfig) PathStyle() bool {
	return c.UsePathStyle || c.Endpoint != ""
}

// String returns a safe string representation (redacts secrets)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Provider:%s, Expiration:%s, Region:%s}",
		c.Provider, c.Expiration, c.Region)
}

// Sanitize returns a copy with secrets redacted. logx.Any calls it so that a
// Config can be logged directly.
func (c *Config) Sanitize() any {
	if c == nil {
		return (*Config)(nil)
	}
	return c.Redacted()
}

// Redacted returns a deep copy of the configuration with every credential
// replaced by a placeholder
func (c *Config) Redacted() *Config {
	if c == nil {
		return nil
	}

	out := *c
	if c.AWS != nil {
		aws := *c.AWS
		aws.AccessKeyID = redact(aws.AccessKeyID)
		aws.SecretAccessKey = redact(aws.SecretAccessKey)
		aws.SessionToken = redact(aws.SessionToken)
		aws.ExternalID = redact(aws.ExternalID)
		out.AWS = &aws
	}
	if c.GCP != nil {
		gcp := *c.GCP
		out.GCP = &gcp
	}
	if c.Azure != nil {
		az := *c.Azure
		az.AccountKey = redact(az.AccountKey)
		az.ConnectionString = redact(az.ConnectionString)
		out.Azure = &az
	}
	if c.DigitalOcean != nil {
		do := *c.DigitalOcean
		do.AccessKeyID = redact(do.AccessKeyID)
		do.SecretAccessKey = redact(do.SecretAccessKey)
		out.DigitalOcean = &do
	}
	return &out
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

// ConfigSummary returns a safe summary of the configuration for logging
func (c *Config) ConfigSummary() map[string]any {
	if c == nil {
		return map[string]any{"error": "nil config"}
	}

	summary := map[string]any{
		"provider":   string(c.Provider),
		"expiration": c.Expiration.String(),
		"region":     c.Region,
	}

	switch {
	case c.AWS != nil:
		summary["bucket"] = c.AWS.Bucket
		summary["region"] = c.AWS.Region
		summary["endpoint"] = c.AWS.Endpoint
		summary["use_path_style"] = c.AWS.PathStyle()
		summary["has_session_token"] = c.AWS.SessionToken != ""
		summary["role_arn"] = c.AWS.RoleARN
		if c.AWS.AccessKeyID != "" {
			summary["access_key_prefix"] = c.AWS.AccessKeyID[:min(4, len(c.AWS.AccessKeyID))] + "..."
		}
	case c.GCP != nil:
		summary["bucket"] = c.GCP.Bucket
		summary["project_id"] = c.GCP.ProjectID
		summary["key_filename"] = c.GCP.KeyFilename
	case c.Azure != nil:
		summary["container"] = c.Azure.Container
		summary["account_name"] = c.Azure.AccountName
		summary["has_connection_string"] = c.Azure.ConnectionString != ""
	case c.DigitalOcean != nil:
		summary["bucket"] = c.DigitalOcean.Bucket
		summary["region"] = c.DigitalOcean.Region
		summary["endpoint"] = c.DigitalOcean.ToAWS().Endpoint
	}

	return summary
}
