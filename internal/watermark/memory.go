package watermark

import (
	"context"
	"sync"
	"time"
)

// MemoryStore holds the watermark in process memory. Used when no
// database is configured and in tests; the cursor resets on restart.
type MemoryStore struct {
	mu sync.Mutex
	ts time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts, nil
}

func (s *MemoryStore) Save(ctx context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts.After(s.ts) {
		s.ts = ts
	}
	return nil
}
