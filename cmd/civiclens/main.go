package main

import (
	"fmt"
	"os"
)

// ============================================================================
// CIVICLENS CLI — Civic dashboard analytics from the terminal
// ============================================================================

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
