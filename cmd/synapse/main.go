package main

import (
	"os"

	"github.com/maanavnair/synapse/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
