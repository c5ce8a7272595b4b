package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nmorrow/covmap/internal/cli"
)

func main() {
	// Best-effort .env load for local development.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
