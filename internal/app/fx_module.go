package app

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Components built from a *config.Config and *zap.Logger
// supplied by the application, and closes them on shutdown.
var FXModule = fx.Module("embedder",
	fx.Provide(New),
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle closes the components when the application stops.
func RegisterLifecycle(lc fx.Lifecycle, c *Components) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Logger.Debug("closing embedding components")
			return c.Close()
		},
	})
}
