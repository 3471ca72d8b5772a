package main

import (
	"os"

	"expiry-scanner/cmd/expiryctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
