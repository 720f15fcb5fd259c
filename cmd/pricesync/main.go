// Command pricesync reconciles scraped supermarket product records with stored
// products and serves the tracked catalog over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
