package schema

import "errors"

// Core error taxonomy. Detection must fail closed: none of these are ever
// swallowed or downgraded to an implicit SAFE verdict.
var (
	// ErrInvalidHeadOutput marks a head whose probability map is empty,
	// malformed, or does not sum to one within tolerance.
	ErrInvalidHeadOutput = errors.New("invalid head output")

	// ErrMissingHeadVote marks an aggregate call that did not receive one
	// vote per known head. A missing head is an upstream inference failure
	// and must never be masked as SAFE or ABSTAIN.
	ErrMissingHeadVote = errors.New("missing head vote")

	// ErrUnknownPreset marks a preset name outside the configured set.
	// This fails at configuration time, not per scan.
	ErrUnknownPreset = errors.New("unknown preset")
)
