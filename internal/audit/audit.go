package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Severity is the recorded state of an audit entry.
type Severity string

const (
	SeverityInfo  Severity = "Info"
	SeverityWarn  Severity = "Warn"
	SeverityError Severity = "Error"
)

// Entry is one structured audit event. Tenant and TenantDomain identify the
// affected tenant; Category groups related events for reporting.
type Entry struct {
	ID           string
	Tenant       string
	TenantDomain string
	Message      string
	Severity     Severity
	Category     string
	CreatedAt    time.Time
}

// Sink receives audit entries. Writes are observability, not correctness:
// implementations must not fail the caller.
type Sink interface {
	Write(ctx context.Context, e Entry)
}

// Log is the default Sink: every entry goes to the structured logger, and to
// Postgres when a pool is configured.
type Log struct {
	pool *pgxpool.Pool // may be nil
	log  *zap.SugaredLogger
}

func NewLog(pool *pgxpool.Pool, log *zap.SugaredLogger) *Log {
	return &Log{pool: pool, log: log}
}

// EnsureSchema creates the audit table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS audit_log (
  id uuid PRIMARY KEY,
  tenant_id text NOT NULL,
  tenant_domain text NOT NULL DEFAULT '',
  message text NOT NULL,
  severity text NOT NULL,
  category text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS audit_log_tenant_idx ON audit_log(tenant_id, created_at DESC);
`)
	return err
}

func (l *Log) Write(ctx context.Context, e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	kv := []any{"tenant", e.Tenant, "domain", e.TenantDomain, "category", e.Category}
	switch e.Severity {
	case SeverityWarn:
		l.log.Warnw(e.Message, kv...)
	case SeverityError:
		l.log.Errorw(e.Message, kv...)
	default:
		l.log.Infow(e.Message, kv...)
	}
	if l.pool == nil {
		return
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, tenant_domain, message, severity, category, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Tenant, e.TenantDomain, e.Message, string(e.Severity), e.Category, e.CreatedAt)
	if err != nil {
		l.log.Warnw("audit persist failed", "tenant", e.Tenant, "err", err)
	}
}

// List returns the most recent entries for a tenant, newest first. Returns
// nil when no pool is configured.
func (l *Log) List(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	if l.pool == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, tenant_id, tenant_domain, message, severity, category, created_at
		 FROM audit_log WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var sev string
		if err := rows.Scan(&e.ID, &e.Tenant, &e.TenantDomain, &e.Message, &sev, &e.Category, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Severity = Severity(sev)
		out = append(out, e)
	}
	return out, rows.Err()
}
