// Shared helpers for keepsake CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

var errUsage = errors.New("usage")

// usageError marks err as caused by user input.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", errUsage, err)
}

// exitCode maps err to exitUserError for bad input and missing entities,
// and exitSysError for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidSource),
		errors.Is(err, types.ErrInvalidSourceID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidPageSize),
		errors.Is(err, types.ErrMalformedSnapshot):
		return exitUserError
	default:
		return exitSysError
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
