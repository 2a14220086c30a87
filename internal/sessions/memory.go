package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/interview-coach/internal/interview"
)

type memoryItem struct {
	data    []byte
	expires time.Time
}

// MemoryRegistry is a process-local Registry. Sessions are stored encoded so
// callers never share a *Session with the registry.
type MemoryRegistry struct {
	mu    sync.Mutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryRegistry creates a registry; ttl <= 0 disables expiry.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a copy of the user's session
func (r *MemoryRegistry) Get(_ context.Context, userID string) (*interview.Session, error) {
	r.mu.Lock()
	item, ok := r.items[userID]
	if ok && r.ttl > 0 && !r.now().Before(item.expires) {
		delete(r.items, userID)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decode(item.data)
}

// Put stores a copy of s and refreshes its expiry
func (r *MemoryRegistry) Put(_ context.Context, s *interview.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.UserID] = memoryItem{data: data, expires: r.now().Add(r.ttl)}
	return nil
}

// Delete removes the user's session
func (r *MemoryRegistry) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *MemoryRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for userID, item := range r.items {
		if !now.Before(item.expires) {
			delete(r.items, userID)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (r *MemoryRegistry) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
