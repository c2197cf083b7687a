package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ecomigrate/internal/migrate"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// Missing .env is fine; S3 settings may come from the environment.
	_ = godotenv.Load()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(migrate.ExitCode(err))
	}
}
