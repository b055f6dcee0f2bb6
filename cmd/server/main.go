package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/config"
	"github.com/iliyamo/westfest/internal/database"
	"github.com/iliyamo/westfest/internal/maintenance"
	"github.com/iliyamo/westfest/internal/queue"
	"github.com/iliyamo/westfest/internal/repository"
	queue_publisher "github.com/iliyamo/westfest/internal/service"
	"github.com/iliyamo/westfest/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := config.Load()
	config.SetupLogging(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	festival, err := config.LoadFestival()
	if err != nil {
		return err
	}
	storageCfg, err := config.LoadStorage()
	if err != nil {
		return err
	}
	maint, err := config.LoadMaintenance()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	redisCfg, err := config.LoadRedis()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient(redisCfg)
	if rdb != nil {
		defer rdb.Close()
	}

	hub := session.NewHub()
	instance := uuid.NewString()

	var broadcaster *queue_publisher.SessionPublisher
	if cfg.AMQPURL != "" {
		broadcaster = queue_publisher.NewSessionPublisher(cfg.AMQPURL, instance)
		defer broadcaster.Close()
		go func() {
			if err := queue.StartSessionConsumer(ctx, cfg.AMQPURL, instance, hub); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("session consumer stopped")
			}
		}()
	} else {
		log.Info().Msg("no broker configured; sessions stay local to this instance")
	}

	tokens := repository.NewTokenRepo(db)
	janitor := &maintenance.Janitor{Tokens: tokens, Retention: maint.TokenRetention}
	runner, err := maintenance.Start(ctx, janitor, maint.JanitorSpec)
	if err != nil {
		return err
	}
	defer func() { <-runner.Stop().Done() }()

	srv, err := newServer(serverDeps{
		cfg:         cfg,
		festival:    festival,
		storage:     storageCfg,
		cache:       cacheCfg,
		rateLimit:   rlCfg,
		db:          db,
		rdb:         rdb,
		hub:         hub,
		tokens:      tokens,
		broadcaster: broadcaster,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("instance", instance).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
