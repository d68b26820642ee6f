package cli

import "go.uber.org/fx"

// Module provides the command line interface
var Module = fx.Options(
	fx.Provide(NewCLI),
)
