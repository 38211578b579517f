package presignx

import (
	"net/url"
	"strings"
	"time"
)

// Planner computes the provider-neutral parts of a presign call: effective
// method, effective expiration, the key to sign and the timestamps. Every
// adapter runs its request through a Planner before calling its signer.
type Planner struct {
	// DefaultExpiration applies when the call does not override it
	DefaultExpiration time.Duration

	Clock func() time.Time
	Keys  KeyGenerator
}

// NewPlanner creates a Planner from the configured default expiration and
// the functional options
func NewPlanner(defaultExpiration time.Duration, options ...Option) *Planner {
	opts := applyOptions(options...)
	return &Planner{
		DefaultExpiration: defaultExpiration,
		Clock:             opts.GetClock(),
		Keys:              opts.GetKeyGenerator(),
	}
}

// Plan is the resolved form of a Request, ready to be signed
type Plan struct {
	Method     Method
	Key        string
	Expiration time.Duration
	IssuedAt   time.Time
	ExpiresAt  time.Time

	// ContentType is empty when the request carried none
	ContentType string
	Metadata    map[string]string
	IsPublic    bool
}

// Plan resolves req against opts
func (p *Planner) Plan(req Request, opts *PresignOptions) *Plan {
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	keys := p.Keys
	if keys == nil {
		keys = NewTimestampKeyGenerator()
	}

	expiration := p.DefaultExpiration
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if opts != nil && opts.Expiration > 0 {
		expiration = opts.Expiration
	}

	method := req.Method.OrDefault()
	key := req.Key
	if method.IsWrite() {
		key = JoinKey(req.Prefix, keys.UniqueName(req.Key))
	}

	now := clock()
	plan := &Plan{
		Method:     method,
		Key:        key,
		Expiration: expiration,
		IssuedAt:   now,
		ExpiresAt:  now.Add(expiration).UTC().Truncate(time.Millisecond),
		Metadata:   req.Metadata,
		IsPublic:   req.IsPublic,
	}
	if req.ContentType != nil {
		plan.ContentType = *req.ContentType
	}
	return plan
}

// Headers returns the headers a client must send with the signed request.
// extra holds vendor headers bound into the signature and may be nil.
func (p *Plan) Headers(extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+1)
	if p.Method.IsWrite() && p.ContentType != "" {
		headers["Content-Type"] = p.ContentType
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

// Response builds the normalized response for signedURL
func (p *Plan) Response(signedURL string, extraHeaders map[string]string) *Response {
	resp := &Response{
		Key:          p.Key,
		PresignedURL: signedURL,
		Method:       p.Method,
		ExpiresAt:    p.ExpiresAt,
		Headers:      p.Headers(extraHeaders),
	}
	if p.IsPublic {
		resp.URL = StripQuery(signedURL)
	}
	return resp
}

// MetadataHeaders prefixes every metadata key, e.g. "x-amz-meta-"
func (p *Plan) MetadataHeaders(prefix string) map[string]string {
	if len(p.Metadata) == 0 {
		return nil
	}
	headers := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		headers[prefix+strings.ToLower(k)] = v
	}
	return headers
}

// StripQuery removes the query string and fragment from a URL
func StripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
