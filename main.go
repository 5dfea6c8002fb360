package main

import (
	"fmt"
	"os"

	"stockMonitor/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stockmonitor: %v\n", err)
		os.Exit(1)
	}
}
