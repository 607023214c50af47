// Package main provides the pmidcite CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent output flags.
var (
	humanOutput bool
	verbose     bool
	quiet       bool
	logJSON     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pmidcite [files...]",
	Short: "Number PubMed citations in Markdown and append a reference list",
	Long: `pmidcite replaces PubMed citation markers such as [pmid 12345](url) in
Markdown documents with sequential numbers and appends a References
section built from PubMed summaries.

Each input is written to <name>_cited<ext> next to it unless -o is given.
Use "-" to read stdin; its result goes to stdout. Command results are JSON
by default; logs go to stderr.

Examples:
  pmidcite paper.md
  pmidcite draft.md -o out/
  cat draft.md | pmidcite - > cited.md
  pmidcite *.md --jobs 4 --no-cache`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runProcess,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// API keys may live in a .env file next to the manuscript.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Discard log messages")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	rootCmd.Version = Version
}
