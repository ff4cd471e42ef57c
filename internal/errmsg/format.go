// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"fmt"

	"github.com/llehouerou/tapedeck/internal/events"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Source operations
	OpSourceOpen Op = "open"

	// Playback operations
	OpPlaybackLoad   Op = "load track"
	OpPlaybackDecode Op = "decode track"
	OpPlaybackOutput Op = "play audio"
	OpPlaybackRemote Op = "reach remote player"
	OpPlaybackStart  Op = "start playback"
)

// ForFailure returns the operation a backend failure of kind interrupted.
func ForFailure(kind events.FailureKind) Op {
	switch kind {
	case events.FailureNetwork:
		return OpPlaybackLoad
	case events.FailureDecode:
		return OpPlaybackDecode
	case events.FailureOutput:
		return OpPlaybackOutput
	case events.FailureBridge:
		return OpPlaybackRemote
	default:
		return OpPlaybackStart
	}
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
