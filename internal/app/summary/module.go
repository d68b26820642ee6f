package summary

import "go.uber.org/fx"

// Module provides the summary scraper for dependency injection
var Module = fx.Options(
	fx.Provide(NewScraper),
)
