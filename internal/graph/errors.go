package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks a call made while its precondition does not
	// hold: a duplicate fetch or fill, fetching a node already present, or
	// filling a missing or already filled node.
	ErrPrecondition = errors.New("precondition violation")
	// ErrUpstream marks a provider failure.
	ErrUpstream = errors.New("upstream failure")
	// ErrNodeNotFound is returned when a key is not in the graph or a
	// provider payload omits the requested key.
	ErrNodeNotFound = errors.New("node not found")
	// ErrMalformedRecord is returned for records that cannot become nodes.
	ErrMalformedRecord = errors.New("malformed image record")
	ErrNilPayload      = errors.New("nil payload")
)

// PreconditionError describes which precondition of which operation failed.
type PreconditionError struct {
	Op     string
	Key    string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Key, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// UpstreamError wraps a provider failure. It matches both ErrUpstream and
// the provider's own error.
type UpstreamError struct {
	Op  string
	Key string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Key, ErrUpstream, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }
