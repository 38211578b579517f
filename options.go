package presignx

import (
	"time"

	"github.com/gostratum/core/logx"
)

// Options holds functional options shared by adapters and the facade
type Options struct {
	logger       logx.Logger
	clock        func() time.Time
	keyGenerator KeyGenerator
	instrumenter *Instrumenter
}

// Option is a functional option for configuring adapters
type Option func(*Options)

// WithLogger sets a custom core logx.Logger
func WithLogger(logger logx.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets a custom time provider (useful for testing)
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithKeyGenerator sets the strategy used to name uploaded objects
func WithKeyGenerator(kg KeyGenerator) Option {
	return func(opts *Options) {
		opts.keyGenerator = kg
	}
}

// WithInstrumenter enables metrics and tracing around provider calls
func WithInstrumenter(inst *Instrumenter) Option {
	return func(opts *Options) {
		opts.instrumenter = inst
	}
}

// applyDefaults applies default values to unset options
func (opts *Options) applyDefaults() {
	if opts.logger == nil {
		opts.logger = logx.NewNoopLogger()
	}
	if opts.clock == nil {
		opts.clock = time.Now
	}
	if opts.keyGenerator == nil {
		opts.keyGenerator = &TimestampKeyGenerator{Clock: opts.clock}
	}
	if opts.instrumenter == nil {
		opts.instrumenter = NewInstrumenter(nil, nil)
	}
}

func applyOptions(options ...Option) *Options {
	opts := &Options{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	opts.applyDefaults()
	return opts
}

// ResolveOptions applies options over the defaults. Adapters call it once at
// construction.
func ResolveOptions(options ...Option) *Options {
	return applyOptions(options...)
}

// GetLogger returns the configured logger
func (opts *Options) GetLogger() logx.Logger {
	if opts.logger == nil {
		return logx.NewNoopLogger()
	}
	return opts.logger
}

// GetClock returns the configured clock function
func (opts *Options) GetClock() func() time.Time {
	if opts.clock == nil {
		return time.Now
	}
	return opts.clock
}

// GetKeyGenerator returns the configured key generator
func (opts *Options) GetKeyGenerator() KeyGenerator {
	if opts.keyGenerator == nil {
		return NewTimestampKeyGenerator()
	}
	return opts.keyGenerator
}

// GetInstrumenter returns the configured instrumenter. A disabled
// instrumenter is returned when none was set.
func (opts *Options) GetInstrumenter() *Instrumenter {
	if opts.instrumenter == nil {
		return NewInstrumenter(nil, nil)
	}
	return opts.instrumenter
}
