package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reconciliation fault taxonomy.
var (
	// ErrThreadBusy - a submission arrived while an assistant entry is still streaming
	ErrThreadBusy = errors.New("thread busy")

	// ErrProtocolViolation - duplicate begin, event after terminal phase; logged and ignored
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrMalformedFragment - accumulated tool arguments did not parse; turn proceeds with empty args
	ErrMalformedFragment = errors.New("malformed fragment")

	// ErrUnmatchedResult - tool result exhausted every matching tier; synthesized as orphan
	ErrUnmatchedResult = errors.New("unmatched result")

	// ErrTransport - transport-level failure (no data, broken connection); fatal to the current turn only
	ErrTransport = errors.New("transport failure")

	// ErrNotFound - resource not found (thread, entry, skill, session)
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput - invalid input from a caller
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

func ThreadBusy(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrThreadBusy)
}

func ProtocolViolation(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrProtocolViolation)
}

func Transport(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrTransport)
}

func NotFound(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrNotFound)
}

func InvalidInput(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidInput)
}
