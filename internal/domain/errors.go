package domain

import "errors"

// Error kinds returned by workflows and the store. Failure sites wrap these
// with fmt.Errorf("%w: ...") so callers can map them with errors.Is.
var (
	// ErrNotFound: the referenced entity does not exist or the actor has no
	// visibility into it.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized: the actor's role or ownership does not permit the
	// operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidState: the entity is not in the state required for the
	// requested transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrPreconditionFailed: a business rule is violated although the entity
	// state is nominally correct.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrStorage: the underlying transaction could not complete. Never
	// retried by the core.
	ErrStorage = errors.New("storage failure")

	// ErrRateLimited: too many commands from one actor inside the window.
	ErrRateLimited = errors.New("rate limited")
)
