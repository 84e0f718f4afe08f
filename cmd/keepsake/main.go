// Package main provides the keepsake CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "keepsake:", err)
		os.Exit(exitCode(err))
	}
}
