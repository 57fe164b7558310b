// Package operator talks to the person running the allocation: every question the
// allocation cannot answer from its input files goes through here.
package operator

import (
	"context"
	"errors"
	"io"
)

// ErrAborted is returned when the operator interrupts the session or closes the input.
var ErrAborted = errors.New("aborted by operator")

// Operator asks blocking questions and shows text to the person at the terminal.
type Operator interface {
	Ask(ctx context.Context, question string) (string, error)
	Out() io.Writer
}
