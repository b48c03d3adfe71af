// Package main provides the Lakescan CLI.
package main

import (
	"os"

	"github.com/lakescan-io/lakescan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
