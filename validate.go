package presignx

import (
	"fmt"
	"strings"
)

// ValidateConfig checks that the backend block selected by cfg.Provider is
// present and carries every required field. Missing fields are reported by
// the name of the environment variable that feeds them.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ConfigError{Err: fmt.Errorf("configuration cannot be nil")}
	}

	if !cfg.Provider.IsValid() {
		return &ConfigError{
			Provider: cfg.Provider,
			Err: fmt.Errorf("%w: %q, supported providers are: %s",
				ErrUnsupportedProvider, cfg.Provider, joinProviders(SupportedProviders())),
		}
	}

	var missing []string
	switch cfg.Provider {
	case ProviderAWS:
		if cfg.AWS == nil {
			return missingBlock(cfg.Provider)
		}
		missing = collectMissing(
			"AWS_ACCESS_KEY_ID", cfg.AWS.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY", cfg.AWS.SecretAccessKey,
			"AWS_REGION", cfg.AWS.Region,
			"AWS_BUCKET_NAME", cfg.AWS.Bucket,
		)
		if len(missing) == 0 {
			if err := validateAWSOptional(cfg.AWS); err != nil {
				return &ConfigError{Provider: cfg.Provider, Err: err}
			}
		}
	case ProviderGCP:
		if cfg.GCP == nil {
			return missingBlock(cfg.Provider)
		}
		missing = collectMissing(
			"GCP_PROJECT_ID", cfg.GCP.ProjectID,
			"GCP_KEY_FILENAME", cfg.GCP.KeyFilename,
			"GCP_BUCKET_NAME", cfg.GCP.Bucket,
		)
	case ProviderAzure:
		if cfg.Azure == nil {
			return missingBlock(cfg.Provider)
		}
		missing = collectMissing("AZURE_STORAGE_CONTAINER_NAME", cfg.Azure.Container)
		// A connection string replaces the account name/key pair
		if cfg.Azure.ConnectionString == "" {
			missing = append(missing, collectMissing(
				"AZURE_STORAGE_ACCOUNT_NAME", cfg.Azure.AccountName,
				"AZURE_STORAGE_ACCOUNT_KEY", cfg.Azure.AccountKey,
			)...)
		}
	case ProviderDigitalOcean:
		if cfg.DigitalOcean == nil {
			return missingBlock(cfg.Provider)
		}
		missing = collectMissing(
			"DO_SPACES_ACCESS_KEY_ID", cfg.DigitalOcean.AccessKeyID,
			"DO_SPACES_SECRET_ACCESS_KEY", cfg.DigitalOcean.SecretAccessKey,
			"DO_SPACES_REGION", cfg.DigitalOcean.Region,
			"DO_SPACES_BUCKET_NAME", cfg.DigitalOcean.Bucket,
		)
		if len(missing) == 0 && cfg.DigitalOcean.Endpoint != "" {
			if err := validateEndpoint(cfg.DigitalOcean.Endpoint); err != nil {
				return &ConfigError{Provider: cfg.Provider, Err: fmt.Errorf("invalid endpoint: %w", err)}
			}
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Provider: cfg.Provider, Missing: missing}
	}
	return nil
}

func missingBlock(p ProviderName) error {
	return &ConfigError{Provider: p, Err: ErrMissingProviderConfig}
}

// collectMissing takes name/value pairs and returns the names whose value is empty
func collectMissing(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}

func validateAWSOptional(cfg *AWSConfig) error {
	if cfg.Endpoint != "" {
		if err := validateEndpoint(cfg.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
	}
	if cfg.RoleARN != "" && !isPlausibleRoleARN(cfg.RoleARN) {
		return fmt.Errorf("role_arn looks invalid: must be a valid IAM role ARN (e.g., arn:aws:iam::123456789012:role/RoleName)")
	}
	return nil
}

// isPlausibleRoleARN performs a light-weight validation of an IAM role ARN
func isPlausibleRoleARN(arn string) bool {
	// arn:partition:service:region:account-id:resource
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "iam" {
		return false
	}
	acct := parts[4]
	if acct == "" {
		return false
	}
	for _, r := range acct {
		if r < '0' || r > '9' {
			return false
		}
	}
	return strings.HasPrefix(parts[5], "role/")
}

// validateEndpoint validates the endpoint URL format
func validateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return nil
	}

	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("endpoint protocol must be http or https")
	}

	if strings.Contains(endpoint, " ") {
		return fmt.Errorf("endpoint cannot contain spaces")
	}

	return nil
}

// ValidateRequest rejects malformed presign requests. It has no side effects.
func ValidateRequest(req Request) error {
	if req.Key == "" {
		return &ValidationError{Field: "key", Message: "key/path is required"}
	}

	if req.Method != "" && !req.Method.IsValid() {
		return &ValidationError{
			Field:   "method",
			Message: fmt.Sprintf("invalid HTTP method: %s", req.Method),
		}
	}

	if req.Method.IsWrite() && req.ContentType != nil && *req.ContentType == "" {
		return &ValidationError{
			Field:   "contentType",
			Message: "content type is required for upload operations",
		}
	}

	for k := range req.Metadata {
		if k == "" {
			return &ValidationError{Field: "metadata", Message: "metadata key cannot be empty"}
		}
		if !isHeaderToken(k) {
			return &ValidationError{
				Field:   "metadata",
				Message: fmt.Sprintf("metadata key %q contains invalid characters", k),
			}
		}
	}

	return nil
}

// isHeaderToken reports whether s can be used inside an HTTP header name
func isHeaderToken(s string) bool {
	for _, r := range s {
		if !isValidHeaderRune(r) {
			return false
		}
	}
	return true
}

// isValidHeaderRune checks a rune against the RFC 7230 token charset
func isValidHeaderRune(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	switch r {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
