package main

import (
	"os"

	"github.com/burrowkit/burrow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
