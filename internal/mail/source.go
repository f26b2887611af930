package mail

import (
	"context"
	"time"
)

// Query parameterizes a fetch: the watermark timestamp plus an optional
// free-text filter forwarded to the source as-is.
type Query struct {
	Since  time.Time
	Filter string
	Limit  int
}

// Source is the mailbox collaborator. A fetch either returns the full
// batch or fails as a whole; partial batches are a source-side concern.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]RawMessage, error)
	Close() error
}
