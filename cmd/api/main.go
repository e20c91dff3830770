package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"travelly_stays/internal/adapters/backend"
	server "travelly_stays/internal/adapters/http_server"
	"travelly_stays/internal/adapters/observability"
	redisad "travelly_stays/internal/adapters/redis"
	"travelly_stays/internal/app"
	"travelly_stays/internal/domain"
	"travelly_stays/internal/shared"
	mysqlrepo "travelly_stays/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// journal is optional; without it commits are not recorded
	var journal domain.CommitJournal
	if cfg.MySQLDSN != "" {
		dsn, err := shared.JournalDSN(cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("bad journal DSN")
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		journal = mysqlrepo.New(db)
	}

	// sessions
	store := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	// backend
	client, err := backend.New(cfg.BackendBase, cfg.BackendKey, cfg.BackendRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	resolver := app.NewResolver(client)
	committer := app.NewCommitter(client, client, journal, cfg.Compensate)
	booking := app.NewBookingService(resolver, committer, store, cfg.SessionTTL)

	// http
	srv := server.New(30 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{B: booking, CommitTimeout: cfg.CommitTimeout})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("backend", cfg.BackendBase).
		Bool("compensate", cfg.Compensate).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
