package cli

import (
	"github.com/spf13/cobra"
)

// CommandType represents the type of CLI command
type CommandType int

// Command type values
const (
	CommandServe CommandType = iota
	CommandGenerate
	CommandSummary
	CommandVersion
	CommandHelp
)

// Options contains the parsed command-line arguments
type Options struct {
	Type  CommandType
	Color bool
}

// Parse parses command-line args and returns an Options struct
func Parse(args []string) (*Options, error) {
	result := &Options{Type: CommandServe}

	root := buildRootCommand(result)
	root.AddCommand(
		buildServeCommand(result),
		buildGenerateCommand(result),
		buildSummaryCommand(result),
		buildVersionCommand(result),
	)

	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, err
	}

	return result, nil
}

// buildRootCommand creates the root cobra command
func buildRootCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loglens",
		Short: "Aggregates workspace log files into one filtered, foldable document",
		Long: `Loglens watches a workspace of timestamped log files, merges them into
a single time-ordered foldable document and serves a typed filter
protocol for panel clients over a unix socket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandServe
		},
	}

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		result.Type = CommandHelp
	})

	return cmd
}

// buildServeCommand creates the serve subcommand
func buildServeCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Watch the workspace and serve the filter protocol",
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandServe
		},
	}
}

// buildGenerateCommand creates the generate subcommand
func buildGenerateCommand(result *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the document once and print it to stdout",
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandGenerate
		},
	}

	cmd.Flags().BoolVar(&result.Color, "color", false, "Render a colorized console preview")

	return cmd
}

// buildSummaryCommand creates the summary subcommand
func buildSummaryCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the scraped workspace summary",
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandSummary
		},
	}
}

// buildVersionCommand creates the version subcommand
func buildVersionCommand(result *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			result.Type = CommandVersion
		},
	}
}
