package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/presignx"
)

// ClientConfig holds the configuration for creating S3 clients
type ClientConfig struct {
	Config *presignx.AWSConfig
	Logger logx.Logger

	// HTTPClient overrides the SDK transport (optional)
	HTTPClient aws.HTTPClient
}

// ClientManager owns the S3 service client and its presign client
type ClientManager struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	config        *presignx.AWSConfig
	logger        logx.Logger
}

// NewClientManager creates a new S3 client manager. No network call is made:
// presigning is a local computation and the ACL call happens on demand.
func NewClientManager(ctx context.Context, clientConfig ClientConfig) (*ClientManager, error) {
	if clientConfig.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if clientConfig.Logger == nil {
		clientConfig.Logger = logx.NewNoopLogger()
	}

	cfg := clientConfig.Config
	logger := clientConfig.Logger

	logger.Debug("Creating S3 client manager", presignx.ArgsToFields(
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"use_path_style", cfg.PathStyle(),
	)...)

	awsConfig, credSource, err := buildAWSConfigWithLoader(ctx, cfg, logger, func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	logger.Debug("Credential source selected", presignx.ArgsToFields("cred_source", credSource)...)

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		// A custom endpoint (MinIO, Spaces) always uses path-style addressing
		if cfg.PathStyle() {
			o.UsePathStyle = true
		}

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		}

		// Signing is never retried
		o.RetryMaxAttempts = 1

		// Presigned uploads carry no body to checksum
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired

		if clientConfig.HTTPClient != nil {
			o.HTTPClient = clientConfig.HTTPClient
		}
	})

	return &ClientManager{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		config:        cfg,
		logger:        logger,
	}, nil
}

// awsConfigLoader is a function that loads an aws.Config given LoadOptions.
type awsConfigLoader func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error)

// buildAWSConfigWithLoader builds an AWS config using the supplied loader (testable).
// It returns the loaded aws.Config and the detected credential source (one of:
// "static", "sdk-default", "assumed-role").
func buildAWSConfigWithLoader(ctx context.Context, cfg *presignx.AWSConfig, logger logx.Logger, loader awsConfigLoader) (aws.Config, string, error) {
	var options []func(*config.LoadOptions) error
	credSource := "sdk-default"

	if cfg.Region != "" {
		options = append(options, config.WithRegion(cfg.Region))
	}

	logger.Debug("Presign config values", presignx.ArgsToFields(
		"access_key_set", cfg.AccessKeyID != "",
		"secret_key_set", cfg.SecretAccessKey != "",
		"session_token_set", cfg.SessionToken != "",
		"endpoint", cfg.Endpoint,
		"bucket", cfg.Bucket,
	)...)

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)
		options = append(options, config.WithCredentialsProvider(credProvider))
		credSource = "static"
	} else if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		return aws.Config{}, credSource, fmt.Errorf("both access key id and secret access key must be set together")
	}

	options = append(options, config.WithRetryMaxAttempts(1))

	awsConfig, err := loader(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	logger.Debug("AWS config loaded", presignx.ArgsToFields(
		"region", awsConfig.Region,
		"cred_source", credSource,
	)...)

	// RoleARN swaps the loaded credentials for temporary ones from STS. The
	// loaded credentials authenticate the AssumeRole call itself.
	if cfg.RoleARN != "" {
		logger.Info("Config requests STS AssumeRole", presignx.ArgsToFields("role_arn", cfg.RoleARN)...)

		stsClient := sts.NewFromConfig(awsConfig)
		assumeProv := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
			o.RoleSessionName = "presignx-assume-role"
		})

		awsConfig.Credentials = aws.NewCredentialsCache(assumeProv)
		credSource = "assumed-role"
	}

	return awsConfig, credSource, nil
}

// GetS3Client returns the configured S3 client
func (cm *ClientManager) GetS3Client() *s3.Client {
	return cm.s3Client
}

// GetPresignClient returns the configured presign client
func (cm *ClientManager) GetPresignClient() *s3.PresignClient {
	return cm.presignClient
}

// GetConfig returns the backend configuration
func (cm *ClientManager) GetConfig() *presignx.AWSConfig {
	return cm.config
}

// GetLogger returns the logger instance
func (cm *ClientManager) GetLogger() logx.Logger {
	return cm.logger
}
