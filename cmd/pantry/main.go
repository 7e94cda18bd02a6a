// Package main provides the entry point for the pantry CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/pantry/cmd/pantry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
