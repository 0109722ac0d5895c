// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotTTL = 15 * time.Minute

// pgDirectory implements Directory backed by PostgreSQL, with an optional
// Redis snapshot cache in front and a Source behind for refreshes.
type pgDirectory struct {
	dbPool *pgxpool.Pool
	rdb    *redis.Client // may be nil
	src    Source        // may be nil (lookups then serve stored rows only)
	log    *zap.SugaredLogger
}

// NewPostgresDirectory constructs a PostgreSQL-backed tenant directory.
func NewPostgresDirectory(dbPool *pgxpool.Pool, rdb *redis.Client, src Source, log *zap.SugaredLogger) Directory {
	return &pgDirectory{dbPool: dbPool, rdb: rdb, src: src, log: log}
}

// EnsureSchema creates the directory table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenant_directory (
  id text PRIMARY KEY,
  display_name text NOT NULL DEFAULT '',
  default_domain_name text NOT NULL DEFAULT '',
  relationship text NOT NULL DEFAULT 'none',
  last_error text NOT NULL DEFAULT '',
  synced_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (d *pgDirectory) Lookup(ctx context.Context, tenantID string, opts LookupOptions) (Tenant, error) {
	if opts.TriggerRefresh {
		return d.refresh(ctx, tenantID, opts.IncludeErrors)
	}
	if d.rdb != nil {
		if raw, err := d.rdb.Get(ctx, snapshotKey(tenantID)).Bytes(); err == nil {
			var t Tenant
			if json.Unmarshal(raw, &t) == nil && t.ID != "" {
				return t, nil
			}
		}
	}
	t, lastErr, err := d.selectRow(ctx, tenantID)
	if err == nil {
		if !rowVisible(lastErr, opts.IncludeErrors) {
			return Tenant{}, ErrNotFound
		}
		d.cacheSnapshot(ctx, t)
		return t, nil
	}
	// No stored row: fall through to the source when we have one.
	if d.src == nil {
		return Tenant{}, ErrNotFound
	}
	return d.refresh(ctx, tenantID, opts.IncludeErrors)
}

func (d *pgDirectory) refresh(ctx context.Context, tenantID string, includeErrors bool) (Tenant, error) {
	if d.src == nil {
		// Without a source a refresh can only serve the stored row; it is
		// subject to the same last-error visibility rule as a plain lookup.
		t, lastErr, err := d.selectRow(ctx, tenantID)
		if err != nil {
			return Tenant{}, err
		}
		if !rowVisible(lastErr, includeErrors) {
			return Tenant{}, ErrNotFound
		}
		return t, nil
	}
	t, err := d.src.Fetch(ctx, tenantID)
	if err != nil {
		// Record the failure on the row so reporting can surface stale
		// tenants, then propagate.
		_, _ = d.dbPool.Exec(ctx,
			`UPDATE tenant_directory SET last_error=$2, synced_at=NOW() WHERE id=$1`,
			tenantID, err.Error())
		return Tenant{}, err
	}
	_, err = d.dbPool.Exec(ctx, `
INSERT INTO tenant_directory (id, display_name, default_domain_name, relationship, last_error, synced_at)
VALUES ($1,$2,$3,$4,'',NOW())
ON CONFLICT (id) DO UPDATE SET
  display_name=EXCLUDED.display_name,
  default_domain_name=EXCLUDED.default_domain_name,
  relationship=EXCLUDED.relationship,
  last_error='',
  synced_at=NOW()`,
		t.ID, t.DisplayName, t.DefaultDomainName, string(t.Relationship))
	if err != nil {
		d.log.Warnw("tenant snapshot persist failed", "tenant", tenantID, "err", err)
	}
	if d.rdb != nil {
		// Drop any stale snapshot before re-caching.
		_ = d.rdb.Del(ctx, snapshotKey(tenantID)).Err()
	}
	d.cacheSnapshot(ctx, t)
	return t, nil
}

func (d *pgDirectory) selectRow(ctx context.Context, tenantID string) (Tenant, string, error) {
	row := d.dbPool.QueryRow(ctx,
		`SELECT id, display_name, default_domain_name, relationship, last_error FROM tenant_directory WHERE id=$1`,
		tenantID)
	var t Tenant
	var rel, lastErr string
	if err := row.Scan(&t.ID, &t.DisplayName, &t.DefaultDomainName, &rel, &lastErr); err != nil {
		if err == pgx.ErrNoRows {
			return Tenant{}, "", ErrNotFound
		}
		return Tenant{}, "", err
	}
	t.Relationship = Relationship(rel)
	return t, lastErr, nil
}

func (d *pgDirectory) cacheSnapshot(ctx context.Context, t Tenant) {
	if d.rdb == nil {
		return
	}
	raw, _ := json.Marshal(t)
	if err := d.rdb.Set(ctx, snapshotKey(t.ID), raw, snapshotTTL).Err(); err != nil {
		d.log.Debugw("tenant snapshot cache set failed", "tenant", t.ID, "err", err)
	}
}

// rowVisible decides whether a stored row with a recorded sync failure may
// be served. Rows carrying a last error are hidden unless the caller opted in.
func rowVisible(lastErr string, includeErrors bool) bool {
	return lastErr == "" || includeErrors
}

func snapshotKey(tenantID string) string { return "mspcore:tenant:" + tenantID }
