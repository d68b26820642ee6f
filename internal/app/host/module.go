package host

import "go.uber.org/fx"

// Module provides the host service for dependency injection
var Module = fx.Options(
	fx.Provide(New),
)
