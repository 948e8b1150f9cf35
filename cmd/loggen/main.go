// Command loggen writes synthetic combat logs and can load them into a
// running server. It is the generate subcommand as a standalone binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/dpsmeter/internal/cli/commands"
)

// defaultRunTimeout bounds a whole generation run.
const defaultRunTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	cmd := commands.NewGenerateCommand()
	cmd.Use = "loggen"
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	cancel()
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
