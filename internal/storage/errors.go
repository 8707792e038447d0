package storage

import "pathfinder/pkg/platform/sentinel"

var (
	// ErrNotFound keeps storage-specific lookups consistent across the
	// in-memory and Postgres implementations.
	ErrNotFound = sentinel.ErrNotFound

	// ErrUnavailable signals the backing store is unreachable. Callers treat
	// it as fatal to the current run or tool call.
	ErrUnavailable = sentinel.ErrUnavailable
)
