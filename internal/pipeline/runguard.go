package pipeline

import (
	"context"
	"sync"
)

// pipelineKey is the fixed pipeline identity the run guard locks on. There is
// exactly one daily pipeline, so one key.
const pipelineKey = "pathfinder:pipeline:daily"

// RunGuard provides the run-level mutual exclusion that keeps two pipeline
// runs from executing concurrently against the same store. The scheduler is
// an untrusted collaborator that may double-fire; an overlapping trigger is
// skipped, never interleaved.
type RunGuard interface {
	// TryAcquire returns a release func when the guard was taken, or
	// acquired=false when another run already holds it.
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}

// MemoryRunGuard guards runs within a single process.
type MemoryRunGuard struct {
	mu sync.Mutex
}

func NewMemoryRunGuard() *MemoryRunGuard {
	return &MemoryRunGuard{}
}

func (g *MemoryRunGuard) TryAcquire(context.Context) (func(), bool, error) {
	if !g.mu.TryLock() {
		return nil, false, nil
	}
	return g.mu.Unlock, true, nil
}
