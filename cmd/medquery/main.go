// Package main provides the medquery CLI.
package main

import (
	"os"

	"github.com/medtra-labs/medquery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
