// Package main implements the entry point for the coach API server, which
// generates English lessons and books in the background and serves chat,
// progress and library endpoints to learners.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
