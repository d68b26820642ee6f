package watcher

import "go.uber.org/fx"

// Module provides the workspace file watcher
var Module = fx.Options(
	fx.Provide(NewWatcher),
)
