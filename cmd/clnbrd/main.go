// Package main is the entry point for the clnbrd CLI.
package main

import (
	"os"

	"github.com/oliveoi1/clnbrd/cmd/clnbrd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
