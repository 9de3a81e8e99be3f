package domain

import "errors"

// Sentinel errors for configuration and host-level validation. The
// matching engine itself is a total function and returns no errors;
// precondition violations (non-positive price or quantity) are rejected
// by callers before an order reaches the book.
var (
	ErrUnknownPolicy    = errors.New("unknown_policy")
	ErrUnknownSelfMatch = errors.New("unknown_self_match_policy")
)
