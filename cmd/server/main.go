// Command server runs the tamper-evident file storage HTTP server: it
// wires the Store to the wire protocol, and optionally to Redis-backed
// rate limiting and root-change notification and to a Postgres-backed
// audit log.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/inda18plusplus/cnol-file-storage/internal/audit"
	"github.com/inda18plusplus/cnol-file-storage/internal/config"
	"github.com/inda18plusplus/cnol-file-storage/internal/handlers"
	"github.com/inda18plusplus/cnol-file-storage/internal/notify"
	"github.com/inda18plusplus/cnol-file-storage/internal/ratelimit"
	"github.com/inda18plusplus/cnol-file-storage/internal/slotid"
	"github.com/inda18plusplus/cnol-file-storage/internal/store"
)

func main() {
	log.Println("[Server] starting cnol-file-storage server...")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("[Server] failed to load configuration: %v", err)
	}

	s, err := store.New(slotid.Bits)
	if err != nil {
		log.Fatalf("[Server] failed to build store: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[Server] WARNING: redis unreachable at %s, continuing without it: %v", cfg.RedisAddr, err)
			rdb = nil
		}
		cancel()
	}

	limiter := ratelimit.NewLimiter(rdb)

	var auditLog *audit.Log
	if cfg.DatabaseURL != "" {
		pg, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[Server] failed to open postgres: %v", err)
		}
		defer pg.Close()

		if _, err := pg.Exec(audit.Schema); err != nil {
			log.Fatalf("[Server] failed to apply audit schema: %v", err)
		}

		auditLog, err = audit.New(pg, []byte(cfg.AuditKey))
		if err != nil {
			log.Fatalf("[Server] failed to build audit log: %v", err)
		}
		log.Println("[Server] audit logging enabled")
	} else {
		log.Println("[Server] DATABASE_URL not set, audit logging disabled")
	}

	hub := notify.NewHub(rdb)
	s.OnRootChanged(hub.Publish)

	h := handlers.NewFileHandler(s, limiter, auditLog)
	router := mux.NewRouter()
	h.Register(router)
	router.HandleFunc("/notify/ws", hub.ServeWS)
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Server] listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("[Server] forced shutdown: %v", err)
	}

	log.Println("[Server] exited gracefully")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
