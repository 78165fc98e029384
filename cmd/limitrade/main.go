package main

import (
	"os"

	"github.com/wonny/limitrade/cmd/limitrade/commands"
)

// main is the entry point for the limitrade CLI
// go run ./cmd/limitrade [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
