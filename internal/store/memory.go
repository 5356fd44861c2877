package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure MemoryStore implements the store interfaces.
var (
	_ model.RecordStore = (*MemoryStore)(nil)
	_ model.QuotaStore  = (*MemoryStore)(nil)
)

// MemoryStore is an in-process store. It backs dry runs and tests, and is the
// working set of FileStore.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.Record // insertion order
	byID    map[string]int
	byLink  map[string]int
	quotas  map[quotaKey]int
}

type quotaKey struct {
	requester string
	day       string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]int),
		byLink: make(map[string]int),
		quotas: make(map[quotaKey]int),
	}
}

// InsertIfAbsent stores rec unless its ID or link is already present.
func (m *MemoryStore) InsertIfAbsent(_ context.Context, rec model.Record) (model.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(rec), nil
}

func (m *MemoryStore) insertLocked(rec model.Record) model.InsertResult {
	if i, ok := m.byID[rec.ID]; ok {
		stored := m.records[i]
		return classifyCollision(rec, stored.ID, stored.Link)
	}
	if rec.Link != "" {
		if i, ok := m.byLink[rec.Link]; ok {
			stored := m.records[i]
			return classifyCollision(rec, stored.ID, stored.Link)
		}
	}

	rec.Requirements = append([]string(nil), rec.Requirements...)
	m.records = append(m.records, rec)
	idx := len(m.records) - 1
	m.byID[rec.ID] = idx
	if rec.Link != "" {
		m.byLink[rec.Link] = idx
	}
	return model.Inserted
}

// MarkDelivered flags a record as delivered.
func (m *MemoryStore) MarkDelivered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.setDeliveredLocked(id, true)
	return err
}

// setDeliveredLocked sets the delivered flag and returns its previous value.
func (m *MemoryStore) setDeliveredLocked(id string, v bool) (bool, error) {
	i, ok := m.byID[id]
	if !ok {
		return false, fmt.Errorf("marking %s delivered: %w", id, model.ErrNotFound)
	}
	prev := m.records[i].Delivered
	m.records[i].Delivered = v
	return prev, nil
}

// remove drops the record with id and rebuilds both indexes.
func (m *MemoryStore) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.byID[id]
	if !ok {
		return
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	clear(m.byID)
	clear(m.byLink)
	for j, r := range m.records {
		m.byID[r.ID] = j
		if r.Link != "" {
			m.byLink[r.Link] = j
		}
	}
}

// QueryPending returns up to limit undelivered records.
func (m *MemoryStore) QueryPending(_ context.Context, limit int, order model.PendingOrder) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Record
	for _, r := range m.records {
		if !r.Delivered {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == model.OldestFirst {
			return out[i].IngestedAt.Before(out[j].IngestedAt)
		}
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})
	return truncate(out, limit), nil
}

// QueryByFilter returns the most recent records matching f.
func (m *MemoryStore) QueryByFilter(_ context.Context, f model.SearchFilter) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	country := strings.TrimSpace(f.Country)
	field := strings.TrimSpace(f.Field)

	var out []model.Record
	for _, r := range m.records {
		if !matchesAll(f.Country) && !strings.EqualFold(r.Country, country) {
			continue
		}
		if !matchesAll(f.Field) && r.Field != field {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newerPosting(out[i], out[j])
	})
	return truncate(out, f.Limit), nil
}

// Stats counts stored, delivered and pending records.
func (m *MemoryStore) Stats(_ context.Context) (model.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := model.StoreStats{Total: len(m.records)}
	for _, r := range m.records {
		if r.Delivered {
			st.Delivered++
		}
	}
	st.Pending = st.Total - st.Delivered
	return st, nil
}

// ConsumeQuota increments the count for (requester, day) when below limit.
func (m *MemoryStore) ConsumeQuota(_ context.Context, requester, day string, limit int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := quotaKey{requester, day}
	n := m.quotas[k]
	if n >= limit {
		return false, n, nil
	}
	m.quotas[k] = n + 1
	return true, n + 1, nil
}

// classifyCollision reports how rec relates to the stored record it hit.
// The stored record always wins.
func classifyCollision(rec model.Record, storedID, storedLink string) model.InsertResult {
	switch {
	case storedID == rec.ID && storedLink == rec.Link:
		return model.Duplicate
	case storedID == rec.ID:
		return model.IDCollision
	default:
		return model.LinkCollision
	}
}

// matchesAll reports whether a filter value means "no filter".
func matchesAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}

// newerPosting orders by posting date descending with unknown dates last,
// then by ingestion time descending.
func newerPosting(a, b model.Record) bool {
	switch {
	case a.PostedAt != nil && b.PostedAt == nil:
		return true
	case a.PostedAt == nil && b.PostedAt != nil:
		return false
	case a.PostedAt != nil && !a.PostedAt.Equal(*b.PostedAt):
		return a.PostedAt.After(*b.PostedAt)
	}
	return a.IngestedAt.After(b.IngestedAt)
}

func truncate(recs []model.Record, limit int) []model.Record {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}
