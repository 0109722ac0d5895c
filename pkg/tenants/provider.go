package tenants

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the directory has no snapshot for a tenant.
var ErrNotFound = errors.New("tenant not found")

// LookupOptions tune a single directory lookup.
type LookupOptions struct {
	// TriggerRefresh bypasses any cached snapshot and re-fetches the tenant
	// from the authoritative source, persisting the result.
	TriggerRefresh bool
	// IncludeErrors returns snapshots whose last sync recorded an error
	// instead of treating them as missing.
	IncludeErrors bool
}

// Directory resolves tenant snapshots.
type Directory interface {
	Lookup(ctx context.Context, tenantID string, opts LookupOptions) (Tenant, error)
}

// Source fetches authoritative snapshots from the remote directory. The
// postgres directory uses it on cache miss and forced refresh.
type Source interface {
	Fetch(ctx context.Context, tenantID string) (Tenant, error)
}
