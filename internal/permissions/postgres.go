// internal/permissions/postgres.go
package permissions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed permission record store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

// EnsureSchema creates the permission record table if it does not already
// exist. Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS permission_records (
  partition_key text NOT NULL,
  row_key text NOT NULL,
  application_id text NOT NULL,
  last_apply text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (partition_key, row_key)
);
`)
	return err
}

func (s *pgStore) List(ctx context.Context, tenantID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT application_id, row_key, last_apply FROM permission_records WHERE partition_key=$1 AND row_key=$2`,
		PartitionKey, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ApplicationID, &rec.Tenant, &rec.LastApply); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgStore) Upsert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO permission_records (partition_key, row_key, application_id, last_apply, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (partition_key, row_key) DO UPDATE SET
  application_id=EXCLUDED.application_id,
  last_apply=EXCLUDED.last_apply,
  updated_at=NOW()`,
		PartitionKey, rec.Tenant, rec.ApplicationID, rec.LastApply)
	return err
}
