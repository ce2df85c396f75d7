// Package main is the entry point for the edgemcpd CLI.
package main

import (
	"fmt"
	"os"

	"github.com/stacklok/edgemcp/cmd/edgemcpd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "there was an error: %v\n", err)
		os.Exit(1)
	}
}
