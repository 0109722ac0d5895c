package permissions

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// PartitionKey is the fixed partition under which every tenant permission
// row is stored. The row key is the tenant id.
const PartitionKey = "tenantperms"

// Record is the per-tenant watermark row: which application last applied
// permissions and when. LastApply is string-encoded Unix seconds to match
// the persisted table layout.
type Record struct {
	ApplicationID string
	Tenant        string
	LastApply     string
}

// LastApplyTime decodes the watermark. Zero time when unparsable.
func (r Record) LastApplyTime() time.Time {
	sec, err := strconv.ParseInt(r.LastApply, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Store persists permission records. Upsert overwrites by tenant id
// (last writer wins); records are never deleted by the reconciler.
type Store interface {
	List(ctx context.Context, tenantID string) ([]Record, error)
	Upsert(ctx context.Context, rec Record) error
}

type memStore struct {
	mu   sync.RWMutex
	rows map[string]Record // keyed by tenant id
}

// NewMemoryStore returns an in-memory Store for dev and tests.
func NewMemoryStore() Store {
	return &memStore{rows: map[string]Record{}}
}

func (s *memStore) List(ctx context.Context, tenantID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.rows[tenantID]; ok {
		return []Record{rec}, nil
	}
	return nil, nil
}

func (s *memStore) Upsert(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.Tenant] = rec
	return nil
}
