package pipeline

import "context"

// Step is one unit of work in the pipeline. Order must be unique within
// an Executor; the Executor rejects duplicates at construction.
//
// ShouldProcess is a pure predicate over the current Context state and
// must not mutate it. Process does the work, mutates the Context in
// place, and returns a typed failure on error. Critical reports whether
// a failure of this step aborts the remaining steps for the message.
type Step interface {
	Name() string
	Order() int
	Critical() bool
	ShouldProcess(pctx *Context) bool
	Process(ctx context.Context, pctx *Context) error
}
