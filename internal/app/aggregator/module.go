package aggregator

import "go.uber.org/fx"

// Module provides the document generator for dependency injection
var Module = fx.Options(
	fx.Provide(NewGenerator),
)
