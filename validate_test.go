package presignx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAWSConfig() *Config {
	return &Config{
		Provider:   ProviderAWS,
		Expiration: DefaultExpiration,
		AWS: &AWSConfig{
			AccessKeyID:     "AKIAEXAMPLE",
			SecretAccessKey: "secret",
			Region:          "us-east-1",
			Bucket:          "my-bucket",
		},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		wantErr     bool
		wantMissing []string
		wantIs      error
	}{
		{
			name: "valid aws",
			cfg:  validAWSConfig(),
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name: "aws missing region",
			cfg: func() *Config {
				c := validAWSConfig()
				c.AWS.Region = ""
				return c
			}(),
			wantErr:     true,
			wantMissing: []string{"AWS_REGION"},
		},
		{
			name: "aws with invalid role arn",
			cfg: func() *Config {
				c := validAWSConfig()
				c.AWS.RoleARN = "not-an-arn"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "aws with valid role arn and endpoint",
			cfg: func() *Config {
				c := validAWSConfig()
				c.AWS.RoleARN = "arn:aws:iam::123456789012:role/TestRole"
				c.AWS.Endpoint = "http://minio.local:9000"
				return c
			}(),
		},
		{
			name: "aws with bad endpoint scheme",
			cfg: func() *Config {
				c := validAWSConfig()
				c.AWS.Endpoint = "ftp://minio.local"
				return c
			}(),
			wantErr: true,
		},
		{
			name:    "selected block missing",
			cfg:     &Config{Provider: ProviderGCP},
			wantErr: true,
			wantIs:  ErrMissingProviderConfig,
		},
		{
			name:    "unknown provider",
			cfg:     &Config{Provider: "oracle"},
			wantErr: true,
			wantIs:  ErrUnsupportedProvider,
		},
		{
			name: "azure connection string only",
			cfg: &Config{
				Provider: ProviderAzure,
				Azure:    &AzureConfig{ConnectionString: "UseDevelopmentStorage=true", Container: "c"},
			},
		},
		{
			name: "azure account pair only",
			cfg: &Config{
				Provider: ProviderAzure,
				Azure:    &AzureConfig{AccountName: "acct", AccountKey: "a2V5", Container: "c"},
			},
		},
		{
			name: "azure missing container",
			cfg: &Config{
				Provider: ProviderAzure,
				Azure:    &AzureConfig{AccountName: "acct", AccountKey: "a2V5"},
			},
			wantErr:     true,
			wantMissing: []string{"AZURE_STORAGE_CONTAINER_NAME"},
		},
		{
			name: "digital ocean all fields",
			cfg: &Config{
				Provider: ProviderDigitalOcean,
				DigitalOcean: &DigitalOceanConfig{
					AccessKeyID: "k", SecretAccessKey: "s", Region: "nyc3", Bucket: "b",
				},
			},
		},
		{
			name: "gcp missing everything",
			cfg: &Config{
				Provider: ProviderGCP,
				GCP:      &GCPConfig{},
			},
			wantErr:     true,
			wantMissing: []string{"GCP_PROJECT_ID", "GCP_KEY_FILENAME", "GCP_BUCKET_NAME"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMissing != nil {
				var cfgErr *ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.wantMissing, cfgErr.Missing)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantField string
	}{
		{name: "minimal get", req: Request{Key: "a.txt"}},
		{name: "empty key", req: Request{}, wantField: "key"},
		{name: "unknown method", req: Request{Key: "a", Method: "PATCH"}, wantField: "method"},
		{name: "lowercase method", req: Request{Key: "a", Method: "get"}, wantField: "method"},
		{name: "put without content type", req: Request{Key: "a", Method: MethodPut}},
		{name: "put with empty content type", req: Request{Key: "a", Method: MethodPut, ContentType: String("")}, wantField: "contentType"},
		{name: "post with empty content type", req: Request{Key: "a", Method: MethodPost, ContentType: String("")}, wantField: "contentType"},
		{name: "get with empty content type", req: Request{Key: "a", Method: MethodGet, ContentType: String("")}},
		{name: "metadata ok", req: Request{Key: "a", Method: MethodPut, Metadata: map[string]string{"owner-id": "42"}}},
		{name: "metadata empty key", req: Request{Key: "a", Metadata: map[string]string{"": "x"}}, wantField: "metadata"},
		{name: "metadata key with space", req: Request{Key: "a", Metadata: map[string]string{"bad key": "x"}}, wantField: "metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.ErrorIs(t, err, ErrInvalidRequest)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestIsPlausibleRoleARN(t *testing.T) {
	assert.True(t, isPlausibleRoleARN("arn:aws:iam::123456789012:role/Name"))
	assert.False(t, isPlausibleRoleARN("arn:aws:s3::123456789012:role/Name"))
	assert.False(t, isPlausibleRoleARN("arn:aws:iam::abc:role/Name"))
	assert.False(t, isPlausibleRoleARN("arn:aws:iam::123456789012:user/Name"))
}
