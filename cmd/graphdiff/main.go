// Package main provides the graphdiff CLI.
//
// Usage:
//
//	graphdiff forward  -f model.yaml
//	graphdiff backward -f model.yaml --output y --order 2
//	graphdiff ops
//	graphdiff version
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
