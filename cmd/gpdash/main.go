package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"gpdash/infrastructure/allocation"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/infrastructure/cache"
	"gpdash/infrastructure/erp"
	httpserver "gpdash/infrastructure/http"
	"gpdash/infrastructure/rbac"
	"gpdash/infrastructure/reservation"
	"gpdash/infrastructure/site"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := getenv("APP_ADDR", ":8080")
	dbPath := getenv("SQLITE_PATH", "gpdash.db")
	gpDSN := os.Getenv("GP_DSN")
	redisAddr := os.Getenv("REDIS_ADDR")

	db, err := appdb.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := appdb.ApplyMigrations(context.Background(), db, "infrastructure/appdb/migrations"); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	gpDB, err := erp.Open(gpDSN)
	if err != nil {
		log.Fatalf("connect to GP: %v", err)
	}
	defer gpDB.Close()
	gp := erp.NewGPReader(gpDB)

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unavailable, page cache disabled", slog.Any("err", err))
			rdb = nil
		}
	}

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	auditSvc := audit.NewService()
	reservations := reservation.NewService(db, auditSvc)
	resolver := allocation.NewResolver(gp, reservations)
	catalog := site.NewCatalog(gp)

	// Expired holds are already treated as free; the sweep just keeps the
	// table small.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := reservations.SweepExpired(sweepCtx); err != nil {
					slog.Warn("reservation sweep failed", slog.Any("err", err))
				} else if n > 0 {
					slog.Info("swept expired serial holds", slog.Int64("count", n))
				}
			}
		}
	}()

	server := httpserver.NewServer(addr, httpserver.Deps{
		DB:           db,
		GP:           gp,
		Resolver:     resolver,
		Reservations: reservations,
		Sites:        catalog,
		Redis:        rdb,
		SessionCache: sessionCache,
		UserCache:    userCache,
		RbacCache:    rbacCache,
		Rbac:         rbacSvc,
		Audit:        auditSvc,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("gpdash listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopSweep()
	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
