package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamExists   = errors.New("stream already exists")
)

// ResolutionError means the chatroom lookup for a channel failed. It is
// fatal to that start attempt.
type ResolutionError struct {
	Channel string
	Status  int
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve chatroom for %q: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("resolve chatroom for %q: status %d", e.Channel, e.Status)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransportError means the feed connection could not be opened or dropped.
// It terminates the current session run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("feed transport %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a single inbound frame was malformed. The frame is
// dropped and the session continues.
type DecodeError struct {
	Event string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("decode frame: %v", e.Err)
	}
	return fmt.Sprintf("decode event %s: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SynthesisError means a TTS backend failed. The message is dropped and no
// notification is emitted.
type SynthesisError struct {
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("tts backend %s: %v", e.Backend, e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }
