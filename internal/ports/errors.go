package ports

import "errors"

// Standard application-level errors. Components wrap underlying failures
// with these sentinels so callers can branch with errors.Is.
var (
	// ErrChannelClosed is the distinguished end-of-stream condition raised by
	// an event channel once it is closed and drained. The run loop treats it
	// as the normal termination signal, not a fault.
	ErrChannelClosed = errors.New("event channel closed")

	// ErrConfiguration marks invalid or missing configuration; construction
	// fails fast and is never silently corrected.
	ErrConfiguration = errors.New("invalid or missing configuration")

	// ErrUnsupportedCurrency is returned by exchange-rate providers for
	// currencies they have no quote for.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrContextCanceled marks an operation aborted via context.
	ErrContextCanceled = errors.New("operation canceled via context")

	// Persistence errors, used by repository adapters.
	ErrNotFound     = errors.New("resource not found")
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
