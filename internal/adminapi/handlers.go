package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mspcore/internal/queue"
	"mspcore/pkg/middleware"
	"mspcore/pkg/tenants"
)

type reconcileBody struct {
	DisplayName       string `json:"displayName"`
	DefaultDomainName string `json:"defaultDomainName"`
}

// postReconcile queues a permission reconciliation for the tenant. The body
// is optional; missing fields are filled from the directory when possible.
func (a *App) postReconcile(w http.ResponseWriter, r *http.Request) {
	if !a.requireScope(w, r, "reconcile.write") {
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	var b reconcileBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&b)
	}
	if b.DisplayName == "" || b.DefaultDomainName == "" {
		if t, err := a.dir.Lookup(r.Context(), tenantID, tenants.LookupOptions{IncludeErrors: true}); err == nil {
			if b.DisplayName == "" {
				b.DisplayName = t.DisplayName
			}
			if b.DefaultDomainName == "" {
				b.DefaultDomainName = t.DefaultDomainName
			}
		}
	}
	it := queue.Item{
		CustomerID:        tenantID,
		DisplayName:       b.DisplayName,
		DefaultDomainName: b.DefaultDomainName,
	}
	if err := a.q.Enqueue(r.Context(), it); err != nil {
		a.log.Errorw("enqueue reconcile", "tenant", tenantID, "reqId", middleware.RequestIDFrom(r.Context()), "err", err)
		writeProblem(w, "enqueue-failed", "Could not queue reconciliation",
			"The reconcile queue rejected the request; try again shortly.", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"queued": true, "customerId": tenantID}, http.StatusAccepted)
}

// getPermissions returns the tenant's watermark record.
func (a *App) getPermissions(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	records, err := a.store.List(r.Context(), tenantID)
	if err != nil {
		a.log.Errorw("list permission records", "tenant", tenantID, "reqId", middleware.RequestIDFrom(r.Context()), "err", err)
		writeProblem(w, "store-error", "Store error", "Could not read permission records.", http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		writeProblem(w, "no-permission-record", "No permission record",
			"Permissions have never been applied for this tenant.", http.StatusNotFound)
		return
	}
	rec := records[0]
	writeJSON(w, map[string]any{
		"applicationId": rec.ApplicationID,
		"tenant":        rec.Tenant,
		"lastApply":     rec.LastApply,
		"lastApplyTime": rec.LastApplyTime(),
	}, http.StatusOK)
}

// getAudit returns recent audit entries for the tenant, newest first.
func (a *App) getAudit(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := a.auditLog.List(r.Context(), tenantID, limit)
	if err != nil {
		a.log.Errorw("list audit entries", "tenant", tenantID, "reqId", middleware.RequestIDFrom(r.Context()), "err", err)
		writeProblem(w, "store-error", "Store error", "Could not read audit entries.", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":           e.ID,
			"tenant":       e.Tenant,
			"tenantDomain": e.TenantDomain,
			"message":      e.Message,
			"severity":     string(e.Severity),
			"category":     e.Category,
			"createdAt":    e.CreatedAt,
		})
	}
	writeJSON(w, map[string]any{"entries": out}, http.StatusOK)
}
