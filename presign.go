package presignx

import (
	"context"
	"time"
)

// Method is the HTTP method a presigned URL is valid for
type Method string

const (
	MethodGet    Method = "GET"
	MethodPut    Method = "PUT"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
)

// Methods returns the recognized methods in a stable order
func Methods() []Method {
	return []Method{MethodGet, MethodPut, MethodPost, MethodDelete}
}

// IsValid reports whether m is one of the four recognized methods
func (m Method) IsValid() bool {
	switch m {
	case MethodGet, MethodPut, MethodPost, MethodDelete:
		return true
	}
	return false
}

// IsWrite reports whether m creates a new object
func (m Method) IsWrite() bool {
	return m == MethodPut || m == MethodPost
}

// OrDefault returns MethodGet when m is empty
func (m Method) OrDefault() Method {
	if m == "" {
		return MethodGet
	}
	return m
}

// ProviderName identifies a storage backend
type ProviderName string

const (
	ProviderAWS          ProviderName = "aws"
	ProviderGCP          ProviderName = "gcp"
	ProviderAzure        ProviderName = "azure"
	ProviderDigitalOcean ProviderName = "digital_ocean"
)

// SupportedProviders returns every provider the module can resolve
func SupportedProviders() []ProviderName {
	return []ProviderName{ProviderAWS, ProviderGCP, ProviderAzure, ProviderDigitalOcean}
}

// IsValid reports whether p is a supported provider
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure, ProviderDigitalOcean:
		return true
	}
	return false
}

// DisplayName returns the human readable provider name used in messages
func (p ProviderName) DisplayName() string {
	switch p {
	case ProviderAWS:
		return "AWS"
	case ProviderGCP:
		return "GCP"
	case ProviderAzure:
		return "Azure"
	case ProviderDigitalOcean:
		return "Digital Ocean"
	}
	return string(p)
}

// String returns the string representation of the provider
func (p ProviderName) String() string { return string(p) }

// Request describes the object and operation a presigned URL is wanted for
type Request struct {
	// Key is the logical path of the object. Required.
	Key string `json:"key"`

	// Prefix is the folder generated upload keys are placed under
	Prefix string `json:"prefix,omitempty"`

	// IsPublic asks for the bare object URL to be returned alongside the
	// signed one. It does not change the object's access level.
	IsPublic bool `json:"isPublic,omitempty"`

	// Method defaults to GET
	Method Method `json:"method,omitempty"`

	// ContentType of the upload. nil means absent; a pointer to an empty
	// string is rejected for writes.
	ContentType *string `json:"contentType,omitempty"`

	// ContentLength is advisory and not bound into signatures
	ContentLength int64 `json:"contentLength,omitempty"`

	// Metadata contains user-defined key-value pairs for uploads
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PresignOptions carries per-call overrides
type PresignOptions struct {
	// Expiration overrides the configured default when positive
	Expiration time.Duration

	// Extensions are opaque backend-specific values. The normalization layer
	// ignores them.
	Extensions map[string]any
}

// Response is the normalized result of a presign call
type Response struct {
	// Key is the storage key actually signed. For PUT/POST it is generated
	// and differs from the requested key.
	Key string `json:"key"`

	// PresignedURL is the full URL including the signature
	PresignedURL string `json:"presignedUrl"`

	// URL is the bare object URL, set only when the request asked for it
	URL string `json:"url"`

	Method Method `json:"method"`

	// ExpiresAt is when the signature stops being accepted
	ExpiresAt time.Time `json:"expiresAt"`

	// Headers must be sent with the request for the signature to verify.
	// Empty when Fields is set; form uploads send those instead.
	Headers map[string]string `json:"headers"`

	// Fields are form fields for browser POST uploads
	Fields map[string]string `json:"fields,omitempty"`
}

// Provider is the contract every storage backend adapter satisfies
type Provider interface {
	// Name returns the provider identity the adapter was built for
	Name() ProviderName

	// GeneratePresignedURL signs the request with the backend's native signer
	GeneratePresignedURL(ctx context.Context, req Request, opts *PresignOptions) (*Response, error)

	// MakeFilePublic grants public read access to an object (or, for some
	// backends, to the whole container)
	MakeFilePublic(ctx context.Context, key string) error
}

// String returns a pointer to s, handy for Request.ContentType
func String(s string) *string { return &s }
