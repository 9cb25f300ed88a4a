package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"warden.dev/internal/audit"
	"warden.dev/internal/auth"
	"warden.dev/internal/config"
	"warden.dev/internal/httpapi"
	"warden.dev/internal/obs"
)

var version = "0.3.0"

func main() {
	obs.Init()
	log := obs.Logger()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("load config", "error", err)
	}

	var db *sql.DB
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalw("open db", "error", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		log.Fatalw("WARDEN_PG_DSN is required")
	}

	store := auth.NewPGStore(db)

	guard, err := auth.NewPermissionGuard(store, auth.WithCacheTTL(cfg.GuardCacheTTL))
	if err != nil {
		log.Fatalw("permission guard", "error", err)
	}
	tokens, err := auth.NewTokenService(cfg.AuthSecret,
		auth.WithTokenTTL(cfg.TokenTTL), auth.WithIssuer(cfg.Issuer))
	if err != nil {
		log.Fatalw("token service", "error", err)
	}
	creds, err := auth.NewCredentialValidator(store, store)
	if err != nil {
		log.Fatalw("credential validator", "error", err)
	}
	keys, err := auth.NewApiKeyValidator(store, nil)
	if err != nil {
		log.Fatalw("api key validator", "error", err)
	}
	directory, err := auth.NewDirectory(store, guard)
	if err != nil {
		log.Fatalw("directory", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := directory.EnsureBuiltins(ctx); err != nil {
		cancel()
		log.Fatalw("ensure builtin permissions", "error", err)
	}
	cancel()

	api := httpapi.New(httpapi.Options{
		Tokens:      tokens,
		Keys:        keys,
		Credentials: creds,
		Guard:       guard,
		Directory:   directory,
		Audit:       audit.NewLogger(audit.NewPGSink(db)),
		ReadyProbe:  httpapi.ReadyProbe{DB: db},
		Version:     version,
		RateBurst:   cfg.RateBurst,
		RatePerSec:  cfg.RatePerSec,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Infow("starting warden-api", "version", version, "addr", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = db.Close()
	log.Infow("stopped")
}
