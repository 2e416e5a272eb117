package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wenbo68/paperparrot/internal/agent"
	"github.com/wenbo68/paperparrot/internal/app"
	"github.com/wenbo68/paperparrot/internal/config"
	"github.com/wenbo68/paperparrot/internal/reconcile"
	"github.com/wenbo68/paperparrot/internal/session"
	"github.com/wenbo68/paperparrot/internal/store"
	"github.com/wenbo68/paperparrot/internal/uploads"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	dataStore := store.NewPostgresStore(db)

	uploadService, err := uploads.New(uploads.Config{
		Endpoint:   cfg.MinioEndpoint,
		AccessKey:  cfg.MinioAccessKey,
		SecretKey:  cfg.MinioSecretKey,
		Bucket:     cfg.MinioBucket,
		UseSSL:     cfg.MinioUseSSL,
		PublicBase: cfg.PublicFileBase,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object storage setup failed")
	}
	if err := uploadService.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("bucket setup failed")
	}

	agentClient, err := agent.NewClient(cfg.AgentURL, agent.WithTimeout(cfg.AgentTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("agent client setup failed")
	}

	engine := reconcile.NewEngine(dataStore, agentClient, uploadService, reconcile.LogNotifier{Log: log}, log)

	var sessions app.RefreshStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Info().Msg("using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Info().Msg("using PostgreSQL for refresh token storage")
		sessions = app.PostgresSessions{Store: dataStore}
	}

	service := app.New(cfg, dataStore, sessions, engine)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("PaperParrot API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Let in-flight background refreshes and best-effort deletes settle.
	engine.Flush()
}
