package revsched

import "errors"

// Sentinel errors for the scheduler.
// Use errors.Is to check: errors.Is(err, revsched.ErrInvalidInput)
var (
	// ErrInvalidInput marks an out-of-range or malformed argument. Rejected
	// synchronously; nothing is silently clamped except the documented
	// difficulty clamps.
	ErrInvalidInput = errors.New("revsched: invalid input")

	// ErrStoreUnavailable marks a failed store read or write. Recoverable
	// via bounded retry; surfaced as a warning once retries exhaust.
	ErrStoreUnavailable = errors.New("revsched: store unavailable")

	// ErrSessionCompleted marks an attempt to mutate or re-complete a
	// session that has already been finalized.
	ErrSessionCompleted = errors.New("revsched: session already completed")

	// ErrNotFound marks a missing progress or session record.
	ErrNotFound = errors.New("revsched: not found")
)
