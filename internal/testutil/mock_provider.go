package testutil

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gostratum/presignx"
)

// FakeProvider is a thread-safe in-memory presignx.Provider for testing. It
// runs requests through a real presignx.Planner and produces deterministic
// URLs of the form https://{Host}/{Bucket}/{key}?X-Fake-Expires=...
type FakeProvider struct {
	ProviderName presignx.ProviderName
	Host         string
	Bucket       string
	Planner      *presignx.Planner

	// Err, when set, is returned by every call
	Err error

	mu      sync.Mutex
	presign []presignx.Request
	public  []string
}

// NewFakeProvider creates a FakeProvider reporting name
func NewFakeProvider(name presignx.ProviderName, options ...presignx.Option) *FakeProvider {
	return &FakeProvider{
		ProviderName: name,
		Host:         "fake.storage.local",
		Bucket:       "test-bucket",
		Planner:      presignx.NewPlanner(presignx.DefaultExpiration, options...),
	}
}

// Name returns the configured provider name
func (f *FakeProvider) Name() presignx.ProviderName {
	return f.ProviderName
}

// GeneratePresignedURL records req and returns a fake signed URL
func (f *FakeProvider) GeneratePresignedURL(ctx context.Context, req presignx.Request, opts *presignx.PresignOptions) (*presignx.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &presignx.ProviderError{Provider: f.ProviderName, Op: "presign", Key: req.Key, Err: err}
	}

	f.mu.Lock()
	f.presign = append(f.presign, req)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	plan := f.Planner.Plan(req, opts)
	u := url.URL{
		Scheme: "https",
		Host:   f.Host,
		Path:   "/" + f.Bucket + "/" + plan.Key,
	}
	q := url.Values{}
	q.Set("X-Fake-Method", string(plan.Method))
	q.Set("X-Fake-Expires", fmt.Sprintf("%d", int64(plan.Expiration/time.Second)))
	u.RawQuery = q.Encode()

	return plan.Response(u.String(), plan.MetadataHeaders("x-fake-meta-")), nil
}

// MakeFilePublic records key
func (f *FakeProvider) MakeFilePublic(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &presignx.ProviderError{Provider: f.ProviderName, Op: "make_public", Key: key, Err: err}
	}

	f.mu.Lock()
	f.public = append(f.public, key)
	f.mu.Unlock()

	return f.Err
}

// PresignCalls returns a copy of the recorded presign requests
func (f *FakeProvider) PresignCalls() []presignx.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]presignx.Request, len(f.presign))
	copy(out, f.presign)
	return out
}

// PublicCalls returns a copy of the keys passed to MakeFilePublic
func (f *FakeProvider) PublicCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.public))
	copy(out, f.public)
	return out
}
