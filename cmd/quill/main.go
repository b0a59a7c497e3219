// Package main is the entry point for the quill CLI.
package main

import (
	"os"

	"github.com/jmylchreest/quill/cmd/quill/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
