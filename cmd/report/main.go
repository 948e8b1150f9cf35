// Command report prints DPS statistics for combat log files.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/dpsmeter/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
