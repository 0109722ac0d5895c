package permissions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mspcore/internal/audit"
	"mspcore/internal/queue"
	"mspcore/pkg/tenants"
)

const auditCategory = "Permissions"

// Reconciler idempotently ensures the configured application holds its
// baseline permission set in a tenant, keeps admin role assignment current,
// and records a last-applied watermark. Safe to re-invoke on the same item:
// grants are idempotent at the remote API and the watermark upsert is
// last-writer-wins.
type Reconciler struct {
	appID   string
	store   Store
	dir     tenants.Directory
	granter Granter
	audit   audit.Sink
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewReconciler(appID string, store Store, dir tenants.Directory, granter Granter, sink audit.Sink, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		appID:   appID,
		store:   store,
		dir:     dir,
		granter: granter,
		audit:   sink,
		log:     log,
		now:     time.Now,
	}
}

// Reconcile runs the full sequence for one queue item. Every failure inside
// the sequence is returned to the caller, which decides whether to suppress
// it; no partial-state compensation is attempted here.
func (r *Reconciler) Reconcile(ctx context.Context, item queue.Item) error {
	refreshDomains := item.DefaultDomainName == ""
	r.log.Infow("applying tenant permissions", "customerId", item.CustomerID, "tenant", item.DisplayName)

	records, err := r.store.List(ctx, item.CustomerID)
	if err != nil {
		return fmt.Errorf("list permission records: %w", err)
	}
	tenant, err := r.dir.Lookup(ctx, item.CustomerID, tenants.LookupOptions{IncludeErrors: true})
	if err != nil {
		return fmt.Errorf("lookup tenant: %w", err)
	}

	if r.consentNeeded(records, tenant) {
		r.audit.Write(ctx, audit.Entry{
			Tenant:       item.CustomerID,
			TenantDomain: item.DefaultDomainName,
			Message:      fmt.Sprintf("Granting baseline application consent for %s", item.DisplayName),
			Severity:     audit.SeverityWarn,
			Category:     auditCategory,
		})
		if err := r.granter.GrantConsent(ctx, item.CustomerID); err != nil {
			return fmt.Errorf("grant consent: %w", err)
		}
		consentGrants.Inc()
		refreshDomains = true
	}

	if err := r.granter.GrantApplicationPermissions(ctx, DefaultProfileName, r.appID, item.CustomerID); err != nil {
		return fmt.Errorf("grant application permissions: %w", err)
	}
	if err := r.granter.GrantDelegatedPermissions(ctx, DefaultProfileName, r.appID, item.CustomerID); err != nil {
		return fmt.Errorf("grant delegated permissions: %w", err)
	}

	if item.DefaultDomainName != tenants.OperatorTenantDomain {
		if err := r.granter.AssignAdminRoles(ctx, item.CustomerID); err != nil {
			return fmt.Errorf("assign admin roles: %w", err)
		}
	}

	// Always refresh the watermark, even when nothing above changed state.
	// The watermark is a liveness signal, distinct from the consent audit.
	rec := Record{
		ApplicationID: r.appID,
		Tenant:        item.CustomerID,
		LastApply:     strconv.FormatInt(r.now().Unix(), 10),
	}
	if err := r.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert permission record: %w", err)
	}

	r.audit.Write(ctx, audit.Entry{
		Tenant:       item.CustomerID,
		TenantDomain: item.DefaultDomainName,
		Message:      fmt.Sprintf("Successfully applied permissions for %s", item.DisplayName),
		Severity:     audit.SeverityInfo,
		Category:     auditCategory,
	})

	if refreshDomains {
		if _, err := r.dir.Lookup(ctx, item.CustomerID, tenants.LookupOptions{TriggerRefresh: true}); err != nil {
			// Log-only: nothing downstream depends on the refreshed snapshot.
			r.log.Warnw("tenant directory refresh failed", "customerId", item.CustomerID, "err", err)
		}
	}
	return nil
}

// consentNeeded: re-grant when no record names the configured application,
// unless the tenant is reached directly (consent is implicit there).
func (r *Reconciler) consentNeeded(records []Record, t tenants.Tenant) bool {
	if t.Relationship == tenants.RelationshipDirect {
		return false
	}
	for _, rec := range records {
		if rec.ApplicationID == r.appID {
			return false
		}
	}
	return true
}
