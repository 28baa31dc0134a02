package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"herd-reproduction/internal/adapters/auth/herdid"
	"herd-reproduction/internal/adapters/storage/mongodb"
	"herd-reproduction/internal/config"
	"herd-reproduction/internal/domain/animals"
	"herd-reproduction/internal/platform/logger"
	"herd-reproduction/internal/ports/auth"
	"herd-reproduction/internal/router"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = log.Sync() }()

	// Auth: con AUTH_BASE_URL verifica tokens contra el servicio de
	// identidad; sin él corre en modo dev (X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if cfg.Auth.BaseURL != "" {
		verifier = herdid.NewVerifier(herdid.NewClient(herdid.Config{
			BaseURL: cfg.Auth.BaseURL,
			APIKey:  cfg.Auth.APIKey,
		}))
		log.Info("token verification enabled", zap.String("base_url", cfg.Auth.BaseURL))
	} else {
		log.Warn("running in dev auth mode (X-Debug-User-ID)")
	}

	// Storage: mongo si está configurado (la forma original del sistema:
	// un documento por animal); si no, el router decide postgres/in-memory.
	var repo animals.Repository
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		cancel()
		if err != nil {
			log.Fatal("mongodb connect failed", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongodb.Close(ctx, db)
		}()

		repo = mongodb.NewAnimalsRepo(db)
		log.Info("using mongodb storage", zap.String("db", cfg.Mongo.DBName))
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Repo:         repo,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
