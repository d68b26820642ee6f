package render

import "go.uber.org/fx"

// Module provides the console renderer for dependency injection
var Module = fx.Options(
	fx.Provide(NewRenderer),
)
