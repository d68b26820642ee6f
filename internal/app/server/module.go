package server

import "go.uber.org/fx"

// Module provides the protocol server for dependency injection
var Module = fx.Options(
	fx.Provide(NewServer),
)
