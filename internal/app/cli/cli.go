package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/colors"
	"loglens/internal/app/discovery"
	"loglens/internal/app/filter"
	"loglens/internal/app/host"
	"loglens/internal/app/render"
	"loglens/internal/app/server"
	"loglens/internal/app/summary"
	"loglens/internal/app/watcher"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// CLI defines the interface for cli operations
type CLI interface {
	Execute() (int, error)
}

// cli represents the command-line interface for the application
type cli struct {
	cfg      *config.Config
	log      logger.Logger
	svc      host.Service
	srv      server.Server
	watch    watcher.Watcher
	disc     discovery.Discovery
	gen      aggregator.Generator
	scraper  summary.Scraper
	renderer *render.Renderer
}

// NewCLI creates a new cli instance
func NewCLI(
	cfg *config.Config,
	log logger.Logger,
	svc host.Service,
	srv server.Server,
	watch watcher.Watcher,
	disc discovery.Discovery,
	gen aggregator.Generator,
	scraper summary.Scraper,
	renderer *render.Renderer,
) CLI {
	return &cli{
		cfg:      cfg,
		log:      log.WithComponent("CLI"),
		svc:      svc,
		srv:      srv,
		watch:    watch,
		disc:     disc,
		gen:      gen,
		scraper:  scraper,
		renderer: renderer,
	}
}

// Execute parses the arguments and runs the selected command
func (c *cli) Execute() (int, error) {
	opts, err := Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colors.Error("Error:"), err)

		return 1, err
	}

	switch opts.Type {
	case CommandServe:
		err = c.handleServe()
	case CommandGenerate:
		err = c.handleGenerate(opts.Color)
	case CommandSummary:
		err = c.handleSummary()
	case CommandVersion:
		err = c.handleVersion()
	case CommandHelp:
		err = c.handleHelp()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colors.Error("Error:"), err)

		return 1, err
	}

	return 0, nil
}

// handleServe runs the host, the protocol server and the workspace
// watcher until interrupted.
func (c *cli) handleServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.srv.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if err := c.srv.Stop(); err != nil {
			c.log.Warn().Err(err).Msg("Server shutdown failed")
		}

		c.svc.Close()
	}()

	err := c.watch.Start(ctx, func(files []string) {
		for _, f := range files {
			c.svc.Schedule(f)
		}
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Workspace watching unavailable")
	} else {
		defer c.watch.Close()
	}

	c.svc.Schedule("startup")
	c.log.Info().Msgf("Serving workspace %s on %s", c.cfg.Workspace, c.srv.SocketPath())

	<-ctx.Done()

	return nil
}

// handleGenerate runs a single generation pass and prints the document
func (c *cli) handleGenerate(color bool) error {
	groups, err := c.disc.Discover()
	if err != nil {
		return err
	}

	settings := aggregator.DisplaySettings{
		Emoji:             c.cfg.Display.Emoji,
		RedactIdentifiers: c.cfg.Display.RedactIdentifiers,
	}

	doc, err := c.gen.Generate(context.Background(), groups, filter.NewState(c.cfg.Session.Window), settings)
	if err != nil {
		return err
	}

	if color {
		c.renderer.Render(os.Stdout, doc)

		return nil
	}

	fmt.Print(doc.Text)

	return nil
}

// handleSummary prints the workspace summary, preferring a running
// serve instance over a local scrape.
func (c *cli) handleSummary() error {
	if result, err := c.remoteSummary(); err == nil {
		printSummary(result)

		return nil
	}

	result, err := c.scraper.Scrape()
	if err != nil {
		return err
	}

	printSummary(summaryFields(result))

	return nil
}

// remoteSummary asks a running instance over the unix socket
func (c *cli) remoteSummary() ([][2]string, error) {
	client, err := server.Dial(c.cfg, c.log)
	if err != nil {
		return nil, err
	}

	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = client.Run(ctx) }()

	payload, err := client.Summary(ctx)
	if err != nil {
		return nil, err
	}

	fields := [][2]string{
		{"session", payload.SessionID},
		{"device", payload.DeviceID},
		{"host version", payload.HostVersion},
		{"web version", payload.WebVersion},
		{"language", payload.Language},
		{"ring", payload.Ring},
	}

	for _, u := range payload.Users {
		fields = append(fields, [2]string{"user", u.UPN})
	}

	return fields, nil
}

// summaryFields flattens a locally scraped summary for printing
func summaryFields(result summary.Summary) [][2]string {
	fields := [][2]string{
		{"session", result.SessionID},
		{"device", result.DeviceID},
		{"host version", result.HostVersion},
		{"web version", result.WebVersion},
		{"language", result.Language},
		{"ring", result.Ring},
	}

	for _, u := range result.Users {
		fields = append(fields, [2]string{"user", u.UPN})
	}

	return fields
}

// printSummary writes label/value pairs, skipping empty values
func printSummary(fields [][2]string) {
	for _, f := range fields {
		if f[1] == "" {
			continue
		}

		fmt.Printf("  %-14s %s\n", colors.Primary(f[0]), f[1])
	}
}

// handleVersion displays version information
func (c *cli) handleVersion() error {
	fmt.Printf("\n%s %s\n\n", colors.Title(config.AppName), colors.Success("v"+config.Version))

	return nil
}

// handleHelp displays help information
func (c *cli) handleHelp() error {
	c.printHelp()

	return nil
}
