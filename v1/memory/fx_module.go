package memory

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// FXModule provides the in-process backend as vectordb.Collection. It needs a
// memory.Config and a *codec.Codec in the container.
var FXModule = fx.Module("memory",
	fx.Provide(
		fx.Annotate(
			NewCollection,
			fx.As(fx.Self()),
			fx.As(new(vectordb.Collection)),
		),
	),
)
