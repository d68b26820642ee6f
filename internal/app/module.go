package app

import (
	"go.uber.org/fx"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/cli"
	"loglens/internal/app/discovery"
	"loglens/internal/app/highlight"
	"loglens/internal/app/host"
	"loglens/internal/app/parser"
	"loglens/internal/app/render"
	"loglens/internal/app/server"
	"loglens/internal/app/summary"
	"loglens/internal/app/watcher"
	"loglens/internal/app/worker"
	"loglens/internal/config/logger"
)

var Module = fx.Options(
	logger.Module,
	parser.Module,
	discovery.Module,
	watcher.Module,
	worker.Module,
	aggregator.Module,
	summary.Module,
	highlight.Module,
	host.Module,
	server.Module,
	render.Module,
	cli.Module,
	fx.Provide(NewApp),
	fx.Invoke(Register),
)
