package discovery

import "go.uber.org/fx"

// Module provides workspace log file discovery
var Module = fx.Options(
	fx.Provide(NewDiscovery),
)
