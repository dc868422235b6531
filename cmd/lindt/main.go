// Command lindt checks, parses, canonicalizes and compares literals of
// linked datatypes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "lindt:", err)
		}
		stop()
		os.Exit(1)
	}
}
