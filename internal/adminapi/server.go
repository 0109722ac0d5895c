package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mspcore/pkg/middleware"
)

// Router builds the admin API route tree with the standard middleware chain.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing("mspcore-admin-api"))
	r.Use(middleware.JWTAuth(a.cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Post("/reconcile", a.postReconcile)
		r.Get("/permissions", a.getPermissions)
		r.Get("/audit", a.getAudit)
	})
	return r
}
