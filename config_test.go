package presignx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitalOceanConfig_ToAWS(t *testing.T) {
	t.Run("default endpoint from region", func(t *testing.T) {
		do := &DigitalOceanConfig{
			AccessKeyID:     "DO00KEY",
			SecretAccessKey: "secret",
			Region:          "nyc3",
			Bucket:          "spaces-bucket",
		}

		aws := do.ToAWS()

		assert.Equal(t, "https://nyc3.digitaloceanspaces.com", aws.Endpoint)
		assert.Equal(t, "nyc3", aws.Region)
		assert.Equal(t, "spaces-bucket", aws.Bucket)
		assert.Equal(t, "DO00KEY", aws.AccessKeyID)
		assert.Equal(t, "secret", aws.SecretAccessKey)
		assert.True(t, aws.UsePathStyle)
		assert.True(t, aws.PathStyle())
	})

	t.Run("explicit endpoint wins", func(t *testing.T) {
		do := &DigitalOceanConfig{Region: "ams3", Endpoint: "https://cdn.example.com"}

		assert.Equal(t, "https://cdn.example.com", do.ToAWS().Endpoint)
	})

	t.Run("translation is pure", func(t *testing.T) {
		do := &DigitalOceanConfig{Region: "sfo3"}
		_ = do.ToAWS()

		assert.Empty(t, do.Endpoint)
	})
}

func TestAWSConfig_GetEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"", ""},
		{"http://localhost:9000", "http://localhost:9000"},
		{"https://s3.example.com/", "https://s3.example.com"},
		{"minio.local:9000", "https://minio.local:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			cfg := &AWSConfig{Endpoint: tt.endpoint}
			assert.Equal(t, tt.want, cfg.GetEndpointURL())
		})
	}
}

func TestAWSConfig_PathStyle(t *testing.T) {
	assert.False(t, (&AWSConfig{}).PathStyle())
	assert.True(t, (&AWSConfig{UsePathStyle: true}).PathStyle())
	assert.True(t, (&AWSConfig{Endpoint: "http://localhost:9000"}).PathStyle())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderAWS, cfg.Provider)
	assert.Equal(t, DefaultExpiration, cfg.Expiration)
	assert.Equal(t, "Config{Provider:aws, Expiration:1h0m0s, Region:}", cfg.String())
}
