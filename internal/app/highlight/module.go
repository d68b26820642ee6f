package highlight

import "go.uber.org/fx"

// Module provides the highlight store for dependency injection
var Module = fx.Options(
	fx.Provide(NewStore),
)
