// fsbrowse - a single-threaded network file browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fsbrowse/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fsbrowse: %v\n", err)
		os.Exit(1)
	}
}
