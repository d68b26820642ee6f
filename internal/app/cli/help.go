package cli

import (
	"fmt"

	"loglens/internal/app/colors"
	"loglens/internal/config"
)

const appDesc = "aggregates workspace log files into one filtered, foldable document"

// printHelp prints formatted help information
func (c *cli) printHelp() {
	fmt.Printf("\n%s %s\n", colors.Title(config.AppName), colors.Success("v"+config.Version))
	fmt.Printf("%s\n\n", colors.Muted(appDesc))

	fmt.Printf("%s\n", colors.Subtitle("USAGE"))
	fmt.Printf("  %s %s\n\n", config.AppName, colors.Muted("[command] [options]"))

	fmt.Printf("%s\n", colors.Subtitle("COMMANDS"))
	fmt.Printf("  %-12s %s\n", colors.Primary("serve"), colors.Muted("Watch the workspace and serve the filter protocol"))
	fmt.Printf("  %-12s %s\n", colors.Primary("generate"), colors.Muted("Generate the document once and print it"))
	fmt.Printf("  %-12s %s\n", colors.Primary("summary"), colors.Muted("Print the scraped workspace summary"))
	fmt.Printf("  %-12s %s\n\n", colors.Primary("version"), colors.Muted("Show version information"))

	fmt.Printf("%s\n", colors.Subtitle("OPTIONS"))
	fmt.Printf("  %-12s %s\n\n", colors.Primary("--color"), colors.Muted("Colorized preview for generate"))

	fmt.Printf("%s\n", colors.Subtitle("EXAMPLES"))
	fmt.Printf("  %s %s %s\n", config.AppName, colors.Success("serve"), colors.Muted("Serve the current workspace"))
	fmt.Printf("  %s %s %s\n\n", config.AppName, colors.Success("generate --color"), colors.Muted("Preview the merged document"))
}
