// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	HTTPAddr       string // admin-api-service
	ReconcilerAddr string // reconciler-service health/metrics

	// ApplicationID identifies the portal's own application registration,
	// the app we grant into managed tenants.
	ApplicationID string

	// Graph-style directory / grant API
	GraphBaseURL      string
	GraphTokenURL     string
	GraphClientID     string
	GraphClientSecret string

	// Optional file overrides for the permission profile catalog and
	// the reconcile-gate Rego policy.
	ProfilePath    string
	GatePolicyPath string

	// Admin API bearer auth
	Issuer   string
	Audience string
	JWKSURL  string

	// Reconcile queue
	QueueKey string
	Workers  int

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string

	GraphHTTPTimeout time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:               env("MSPCORE_ENV", "dev"),
		HTTPAddr:          env("MSPCORE_HTTP_ADDR", ":8080"),
		ReconcilerAddr:    env("MSPCORE_RECONCILER_ADDR", ":8082"),
		ApplicationID:     env("APPLICATION_ID", ""),
		GraphBaseURL:      env("GRAPH_BASE_URL", "https://graph.microsoft.com"),
		GraphTokenURL:     env("GRAPH_TOKEN_URL", ""),
		GraphClientID:     env("GRAPH_CLIENT_ID", ""),
		GraphClientSecret: env("GRAPH_CLIENT_SECRET", ""),
		ProfilePath:       env("PERMISSION_PROFILE_PATH", ""),
		GatePolicyPath:    env("RECONCILE_GATE_POLICY", ""),
		Issuer:            env("OIDC_ISSUER", ""),
		Audience:          env("OIDC_AUDIENCE", "mspcore-admin"),
		JWKSURL:           env("JWKS_URL", ""),
		QueueKey:          env("RECONCILE_QUEUE_KEY", "mspcore:reconcile"),
		Workers:           envInt("RECONCILE_WORKERS", 4),
		RedisURL:          env("REDIS_URL", ""),
		DatabaseURL:       env("DATABASE_URL", ""),
		GraphHTTPTimeout:  envDur("GRAPH_HTTP_TIMEOUT_SEC", 30) * time.Second,
	}
	if cfg.ApplicationID == "" {
		log.Println("[WARN] APPLICATION_ID not set; every tenant will look like it needs consent")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set; using in-memory stores for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
