package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrMalformed          = fmt.Errorf("malformed mutation")
	ErrUnauthorized       = fmt.Errorf("unauthorized mutation")
	ErrStaleNoop          = fmt.Errorf("stale mutation")
	ErrUnknownRoom        = fmt.Errorf("room is not open")
	ErrUnknownMutation    = fmt.Errorf("unknown mutation type")
	ErrUnsupportedMIME    = fmt.Errorf("unsupported attachment mime type")
	ErrInvalidToken       = fmt.Errorf("invalid identity token")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrEngineNotStarted   = fmt.Errorf("engine is not started")
)

// IngestError reports a raw mutation dropped at ingest.
type IngestError struct {
	EventID string
	Reason  string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: event %q: %s", ErrMalformed, e.EventID, e.Reason)
}

func (e *IngestError) Unwrap() error { return ErrMalformed }

func Malformed(eventID, format string, args ...any) *IngestError {
	return &IngestError{EventID: eventID, Reason: fmt.Sprintf(format, args...)}
}

type ConflictKind string

const (
	ConflictUnauthorized ConflictKind = "unauthorized"
	ConflictStaleNoop    ConflictKind = "stale"
)

// Conflict is returned by the resolver when a mutation does not change the
// projection. A stale conflict is not a failure: the projection already holds
// newer state.
type Conflict struct {
	Kind    ConflictKind
	EventID string
	Reason  string
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("%s conflict on event %q: %s", c.Kind, c.EventID, c.Reason)
}

func (c *Conflict) Unwrap() error {
	if c.Kind == ConflictUnauthorized {
		return ErrUnauthorized
	}
	return ErrStaleNoop
}

func Unauthorized(eventID, reason string) *Conflict {
	return &Conflict{Kind: ConflictUnauthorized, EventID: eventID, Reason: reason}
}

func Stale(eventID, reason string) *Conflict {
	return &Conflict{Kind: ConflictStaleNoop, EventID: eventID, Reason: reason}
}

func IsStaleNoop(err error) bool { return errors.Is(err, ErrStaleNoop) }

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

func IsMalformed(err error) bool { return errors.Is(err, ErrMalformed) }

// AsConflict extracts the Conflict carried by err, if any.
func AsConflict(err error) (*Conflict, bool) {
	var c *Conflict
	ok := errors.As(err, &c)
	return c, ok
}
