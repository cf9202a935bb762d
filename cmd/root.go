package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calagent application
var rootCmd = &cobra.Command{
	Use:   "calagent",
	Short: "Natural-language Google Calendar tools for AI assistants",
	Long: `calagent lets AI assistants search, create, update and delete Google
Calendar events and find free meeting slots using plain phrases such as
"next monday at 10am" or "every tuesday for 3 weeks".

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A CLI to try the date and recurrence parsers locally`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calagent version %s\n" .Version}}`)

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
