package presignx

import (
	"errors"
	"fmt"
	"strings"
)

// Domain Errors - use errors.Is for checking
var (
	// ErrInvalidRequest indicates the caller supplied a malformed request
	ErrInvalidRequest = errors.New("presignx: invalid request")

	// ErrInvalidConfig indicates the configuration is unusable
	ErrInvalidConfig = errors.New("presignx: invalid configuration")

	// ErrUnsupportedProvider indicates the provider identifier is unknown
	ErrUnsupportedProvider = errors.New("presignx: unsupported provider")

	// ErrMissingProviderConfig indicates the selected provider has no config block
	ErrMissingProviderConfig = errors.New("presignx: provider configuration is missing")

	// ErrProvider indicates the backend's signing or ACL call failed
	ErrProvider = errors.New("presignx: provider call failed")

	// ErrUnsupportedMethod indicates the HTTP method cannot be signed
	ErrUnsupportedMethod = errors.New("presignx: unsupported HTTP method")

	// ErrAborted indicates the operation was cancelled
	ErrAborted = errors.New("presignx: operation aborted")

	// ErrTimeout indicates the operation timed out
	ErrTimeout = errors.New("presignx: operation timeout")
)

// ValidationError represents a rejected request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %q: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidRequest
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// ConfigError reports an unusable configuration. Missing holds the names of
// the environment variables that were required but empty.
type ConfigError struct {
	Provider ProviderName
	Missing  []string
	Err      error
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("presignx: missing %s configuration: %s",
			e.Provider.DisplayName(), strings.Join(e.Missing, ", "))
	}
	if e.Provider != "" {
		return fmt.Sprintf("presignx: %s configuration: %v", e.Provider.DisplayName(), e.Err)
	}
	return fmt.Sprintf("presignx: configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigError match ErrInvalidConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ProviderError wraps a backend failure with the provider and operation
type ProviderError struct {
	Provider ProviderName // provider that failed
	Op       string       // operation that failed
	Key      string       // object key (if applicable)
	Err      error        // underlying error
}

func (e *ProviderError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("presignx %s %s %q: %v", e.Provider, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("presignx %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes every ProviderError match ErrProvider
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// IsValidationError checks if an error is or wraps a request validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsConfigError checks if an error is or wraps a configuration error
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsProviderError checks if an error is or wraps a backend error
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider)
}
