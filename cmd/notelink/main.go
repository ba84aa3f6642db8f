// Package main provides the entry point for the notelink CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/notelink/cmd/notelink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
