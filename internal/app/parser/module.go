package parser

import "go.uber.org/fx"

// Module provides the parser for dependency injection
var Module = fx.Options(
	fx.Provide(NewParser),
)
