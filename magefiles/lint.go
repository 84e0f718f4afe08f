//go:build mage

// Copyright (c) 2026 The Keepsake Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// Vet runs go vet.
func Vet() error {
	return sh.RunV(binGo, "vet", "./...")
}

// Lint runs go vet, then golangci-lint. Set KEEPSAKE_LINT_FIX=1 to apply
// suggested fixes.
func Lint() error {
	mg.Deps(Vet)
	args := []string{"run", "--timeout", "5m"}
	if os.Getenv("KEEPSAKE_LINT_FIX") == "1" {
		args = append(args, "--fix")
	}
	args = append(args, "./...")
	return sh.RunV(binLint, args...)
}
