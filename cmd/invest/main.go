package main

import (
	"os"

	"github.com/rubenayla/invest/cmd/invest/commands"
)

// main is the entry point for the invest CLI: go run ./cmd/invest [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
