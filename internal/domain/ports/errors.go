// Package ports defines interfaces for external service communication.
package ports

import "errors"

var (
	// ErrNotFound is returned by an UpstreamClient when the requested
	// Pokemon does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned by a RecordStore that cannot be reached.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
