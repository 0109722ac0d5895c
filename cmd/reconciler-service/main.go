// cmd/reconciler-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mspcore/internal/audit"
	"mspcore/internal/gate"
	"mspcore/internal/permissions"
	"mspcore/internal/queue"
	"mspcore/pkg/config"
	"mspcore/pkg/db"
	"mspcore/pkg/graph"
	"mspcore/pkg/logger"
	"mspcore/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)
	if rdb == nil {
		log.Fatalw("REDIS_URL is required: the reconcile queue lives in redis")
	}

	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := tenants.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("tenant schema", "err", err)
		}
		if err := permissions.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("permissions schema", "err", err)
		}
		if err := audit.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("audit schema", "err", err)
		}
		cancel()
	}

	cli := graph.New(cfg, log)
	var src tenants.Source
	if cfg.GraphTokenURL != "" {
		src = tenants.NewGraphSource(cli)
	} else {
		log.Warnw("GRAPH_TOKEN_URL not set; directory refreshes and grants will fail until configured")
	}

	var dir tenants.Directory
	var store permissions.Store
	if pool != nil {
		dir = tenants.NewPostgresDirectory(pool, rdb, src, log)
		store = permissions.NewPostgresStore(pool)
	} else {
		dir = tenants.NewMemoryDirectoryFromEnv(log)
		store = permissions.NewMemoryStore()
	}
	auditLog := audit.NewLog(pool, log)

	catalog, err := permissions.LoadCatalog(cfg.ProfilePath)
	if err != nil {
		log.Fatalw("profile catalog", "err", err)
	}
	granter := permissions.NewGraphGranter(cli, catalog, cfg.ApplicationID, log)
	reconciler := permissions.NewReconciler(cfg.ApplicationID, store, dir, granter, auditLog, log)

	g, err := gate.New(context.Background(), cfg.GatePolicyPath, log)
	if err != nil {
		log.Fatalw("gate policy", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	consumer := queue.NewConsumer(rdb, cfg.QueueKey, cfg.Workers, func(ctx context.Context, it queue.Item) error {
		if !g.Allow(ctx, it.CustomerID, it.DefaultDomainName) {
			return queue.ErrSkipped
		}
		return reconciler.Reconcile(ctx, it)
	}, log)
	consumer.Start(ctx)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.ReconcilerAddr, Handler: r}
	go func() {
		log.Infow("reconciler-service listening", "addr", cfg.ReconcilerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	consumer.Wait()
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	fmt.Println("reconciler-service stopped")
}
