package presigner

import (
	"context"
	"fmt"

	"github.com/gostratum/core"
)

// configCheck implements core.Check by resolving the configured adapter.
// Resolution is local, so the check never talks to the backend.
type configCheck struct {
	presigner *Presigner
}

func (c *configCheck) Name() string { return "presignx.config" }

func (c *configCheck) Kind() core.Kind { return core.Readiness }

func (c *configCheck) Check(ctx context.Context) error {
	if c.presigner == nil {
		return fmt.Errorf("no presigner")
	}
	return c.presigner.Ready(ctx)
}

// Ready loads the configuration and builds the adapter it selects
func (p *Presigner) Ready(ctx context.Context) error {
	if _, _, err := p.provider(ctx); err != nil {
		return wrap("resolve provider", err)
	}
	return nil
}
