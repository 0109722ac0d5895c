// cmd/admin-api-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mspcore/internal/adminapi"
	"mspcore/internal/audit"
	"mspcore/internal/permissions"
	"mspcore/internal/queue"
	"mspcore/pkg/config"
	"mspcore/pkg/db"
	"mspcore/pkg/logger"
	"mspcore/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)
	if rdb == nil {
		log.Fatalw("REDIS_URL is required: reconcile requests are queued in redis")
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

	var dir tenants.Directory
	var store permissions.Store
	if pool != nil {
		dir = tenants.NewPostgresDirectory(pool, rdb, nil, log)
		store = permissions.NewPostgresStore(pool)
	} else {
		dir = tenants.NewMemoryDirectoryFromEnv(log)
		store = permissions.NewMemoryStore()
	}
	auditLog := audit.NewLog(pool, log)
	q := queue.New(rdb, cfg.QueueKey)

	app := adminapi.New(log, cfg, store, dir, auditLog, q)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Router()}
	go func() {
		log.Infow("admin-api-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("admin-api-service stopped")
}
