package adminapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mspcore/internal/audit"
	"mspcore/internal/permissions"
	"mspcore/internal/queue"
	"mspcore/pkg/config"
	"mspcore/pkg/middleware"
	"mspcore/pkg/problems"
	"mspcore/pkg/tenants"
)

// App is the admin-api application container.
// Handlers and middleware have methods on this type.
//
// Keep it lean: shared deps and config only.
// Request-scoped work should use context.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	store    permissions.Store
	dir      tenants.Directory
	auditLog *audit.Log
	q        queue.Enqueuer
}

func New(log *zap.SugaredLogger, cfg config.Config, store permissions.Store, dir tenants.Directory, auditLog *audit.Log, q queue.Enqueuer) *App {
	return &App{log: log, cfg: cfg, store: store, dir: dir, auditLog: auditLog, q: q}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, slug, title, detail string, status int) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   problems.Type(slug),
		"title":  title,
		"detail": detail,
		"status": status,
	})
}

// requireScope enforces a scope outside dev. JWTAuth populated the context.
func (a *App) requireScope(w http.ResponseWriter, r *http.Request, scope string) bool {
	if a.cfg.Env == "dev" {
		return true
	}
	if !middleware.HasAnyScope(r.Context(), []string{scope}) {
		writeProblem(w, "insufficient-scope", "Insufficient scope",
			"The presented token does not carry "+scope, http.StatusForbidden)
		return false
	}
	return true
}
