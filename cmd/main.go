package main

import (
	"context"
	"os"

	"streak-service/internal/cli"
)

func main() {
	// Create and run the root command
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
