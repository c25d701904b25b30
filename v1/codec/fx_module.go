package codec

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a *Codec built from the Config in the container and releases
// its compressors when the application stops.
var FXModule = fx.Module("codec",
	fx.Provide(New),
	fx.Invoke(RegisterCodecLifecycle),
)

// RegisterCodecLifecycle closes the codec on stop.
func RegisterCodecLifecycle(lc fx.Lifecycle, c *Codec) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})
}
