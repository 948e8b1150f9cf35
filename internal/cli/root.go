// Package cli provides the command-line interface of dpsmeter.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/dpsmeter/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dpsmeter",
		Short: "Analyze combat log damage offline",
		Long: `dpsmeter reads combat logs and reports per-skill damage statistics.

Configuration is shared with the server: defaults, then the YAML file named by
DPSMETER_CONFIG, then DPSMETER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
