package security

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory EventStore. It backs the engine's unit tests
// and serves as a single-node fallback when no database is wired in.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (m *MemStore) Append(ctx context.Context, ev *Event) error {
	return m.AppendAll(ctx, ev)
}

func (m *MemStore) AppendAll(_ context.Context, evs ...*Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range evs {
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = time.Now().UTC()
		}
		ev.ID = m.nextID
		m.nextID++
		m.events = append(m.events, *ev)
	}
	return nil
}

func (f Filter) matches(ev Event) bool {
	if f.UserID != nil && (ev.UserID == nil || *ev.UserID != *f.UserID) {
		return false
	}
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if ev.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.From.IsZero() {
		if f.FromExclusive {
			if !ev.CreatedAt.After(f.From) {
				return false
			}
		} else if ev.CreatedAt.Before(f.From) {
			return false
		}
	}
	if !f.Until.IsZero() && ev.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

func (m *MemStore) Query(_ context.Context, f Filter) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, ev := range m.events {
		if f.matches(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.Desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemStore) Count(ctx context.Context, f Filter) (int, error) {
	evs, err := m.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	return len(evs), nil
}

func (m *MemStore) Latest(ctx context.Context, f Filter) (*Event, error) {
	f.Desc = true
	f.Limit = 1
	evs, err := m.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, nil
	}
	return &evs[0], nil
}

func (m *MemStore) FailureCountsSince(_ context.Context, since time.Time) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[int]int)
	for _, ev := range m.events {
		if ev.Kind != KindFailedLogin || ev.UserID == nil {
			continue
		}
		if ev.CreatedAt.Before(since) {
			continue
		}
		counts[*ev.UserID]++
	}
	return counts, nil
}
