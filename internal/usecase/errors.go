package usecase

import "errors"

// Sentinel error kinds. Callers match with errors.Is; nothing should ever
// have to string-match a message to tell an auth failure from a transport
// one.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")

	// ErrUnauthorized is fatal to the session: the backend rejected the
	// token (HTTP 401), local auth-scoped state is purged, and the caller
	// must re-authenticate. Never retried silently.
	ErrUnauthorized = errors.New("session unauthorized")

	// ErrNetwork marks recoverable transport failures; optimistic state is
	// rolled back and the same operation is safe to retry later.
	ErrNetwork = errors.New("network failure")

	// ErrPermissionDenied means the device declined notification
	// permission. No state is mutated.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrPreconditionFailed rejects scheduling a reminder for a match that
	// is not safely in the future, before any state change.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrToggleInFlight rejects a re-entrant toggle for an event whose
	// previous toggle has not settled yet.
	ErrToggleInFlight = errors.New("toggle already in flight")

	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
