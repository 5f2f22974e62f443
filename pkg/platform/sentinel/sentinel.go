package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborators return
// these (optionally wrapped) so services can translate them into domain
// errors with the right business message.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store or registry
// - ErrAlreadyUsed: unique value (email, exam number, exam type) taken
// - ErrConflict: concurrent update invalidated the caller's view
// - ErrUnavailable: external collaborator temporarily unreachable
//
// For validation errors (bad input, out-of-range score), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
