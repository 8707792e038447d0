package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrUnavailable: store or transport temporarily unreachable
// - ErrDenied: no role authorized the requested action
// - ErrRunInProgress: a pipeline run already holds the run guard
// - ErrInvalidState: entity in wrong state for requested operation
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrDenied        = errors.New("denied")
	ErrRunInProgress = errors.New("run in progress")
	ErrInvalidState  = errors.New("invalid state")
)
