package main

import (
	"os"

	"github.com/llmgate/llmgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
