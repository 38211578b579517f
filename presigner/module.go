package presigner

import (
	"context"

	"github.com/gostratum/core"
	"github.com/gostratum/core/logx"
	"github.com/gostratum/metricsx"
	"github.com/gostratum/presignx"
	"github.com/gostratum/tracingx"
	"go.uber.org/fx"
)

// Module provides a *Presigner to the fx graph together with a readiness
// check for its configuration.
//
// Without a supplied *presignx.Config the Presigner reads the environment on
// every call.
//
//	app := core.New(
//	    presigner.Module(),
//	    fx.Invoke(func(p *presigner.Presigner) {
//	        // Use p...
//	    }),
//	)
func Module() fx.Option {
	return fx.Module("presignx",
		fx.Provide(
			NewObservabilityInstrumenter,
			NewFromParams,
		),
		fx.Provide(
			fx.Annotated{
				Target: newConfigCheck,
				Group:  "health_checkers",
			},
		),
		fx.Invoke(registerLifecycle),
	)
}

// ObservabilityDeps defines optional observability dependencies
type ObservabilityDeps struct {
	fx.In

	Metrics metricsx.Metrics `optional:"true"`
	Tracer  tracingx.Tracer  `optional:"true"`
}

// NewObservabilityInstrumenter creates an instrumenter for presign operations
func NewObservabilityInstrumenter(deps ObservabilityDeps) *presignx.Instrumenter {
	return presignx.NewInstrumenter(deps.Metrics, deps.Tracer)
}

// Params defines the dependencies of a Presigner built by fx
type Params struct {
	fx.In

	Config       *presignx.Config       `optional:"true"`
	Resolver     Resolver               `optional:"true"`
	Logger       logx.Logger            `optional:"true"`
	Instrumenter *presignx.Instrumenter `optional:"true"`
}

// NewFromParams creates a Presigner from fx-provided dependencies
func NewFromParams(params Params) *Presigner {
	var options []Option
	if params.Config != nil {
		options = append(options, WithConfig(params.Config))
	}
	if params.Resolver != nil {
		options = append(options, WithResolver(params.Resolver))
	}
	if params.Logger != nil {
		options = append(options, WithLogger(params.Logger))
	}
	if params.Instrumenter != nil {
		options = append(options, WithInstrumenter(params.Instrumenter))
	}
	return New(options...)
}

func newConfigCheck(p *Presigner) core.Check {
	return &configCheck{presigner: p}
}

// WithCustomConfig supplies a fixed configuration to the fx graph
func WithCustomConfig(cfg *presignx.Config) fx.Option {
	return fx.Supply(cfg)
}

// WithCustomResolver supplies an adapter resolver to the fx graph
func WithCustomResolver(r Resolver) fx.Option {
	return fx.Supply(r)
}

// LifecycleParams defines parameters for lifecycle management
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Presigner *Presigner
	Logger    logx.Logger `optional:"true"`
}

// registerLifecycle logs start and reports a broken configuration early.
// A bad configuration does not fail startup; the readiness check reports it.
func registerLifecycle(params LifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Logger == nil {
				return nil
			}
			if err := params.Presigner.Ready(ctx); err != nil {
				params.Logger.Warn("presignx started with an unusable configuration", presignx.ArgsToFields("error", err)...)
				return nil
			}
			params.Logger.Info("presignx module started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if params.Logger != nil {
				params.Logger.Info("presignx module stopped")
			}
			return nil
		},
	})
}
