// pkg/tenants/memory.go
package tenants

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"go.uber.org/zap"
)

type memDirectory struct {
	log  *zap.SugaredLogger
	mu   sync.RWMutex
	byID map[string]Tenant

	refreshes map[string]int
}

// NewMemoryDirectory returns an empty in-memory directory. Mostly useful for
// dev bring-up without a database; seed it with Put.
func NewMemoryDirectory(log *zap.SugaredLogger) *memDirectory {
	return &memDirectory{log: log, byID: map[string]Tenant{}, refreshes: map[string]int{}}
}

// NewMemoryDirectoryFromEnv seeds the directory from TENANT_SEED_JSON:
// [{"id":"...","displayName":"...","defaultDomainName":"...","relationship":"delegated"}]
func NewMemoryDirectoryFromEnv(log *zap.SugaredLogger) *memDirectory {
	d := NewMemoryDirectory(log)
	seed := os.Getenv("TENANT_SEED_JSON")
	if seed == "" {
		return d
	}
	var entries []struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		DefaultDomainName string `json:"defaultDomainName"`
		Relationship      string `json:"relationship"`
	}
	if err := json.Unmarshal([]byte(seed), &entries); err != nil {
		log.Warnw("tenant seed parse failed", "err", err)
		return d
	}
	for _, e := range entries {
		rel := Relationship(e.Relationship)
		if rel == "" {
			rel = RelationshipDelegated
		}
		d.Put(Tenant{ID: e.ID, DisplayName: e.DisplayName, DefaultDomainName: e.DefaultDomainName, Relationship: rel})
	}
	return d
}

func (d *memDirectory) Put(t Tenant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[t.ID] = t
}

func (d *memDirectory) Lookup(ctx context.Context, tenantID string, opts LookupOptions) (Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if opts.TriggerRefresh {
		d.refreshes[tenantID]++
	}
	if t, ok := d.byID[tenantID]; ok {
		return t, nil
	}
	return Tenant{}, ErrNotFound
}

// Refreshes reports how many forced refreshes were requested for a tenant.
func (d *memDirectory) Refreshes(tenantID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshes[tenantID]
}
