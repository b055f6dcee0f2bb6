package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/account"
	"github.com/iliyamo/westfest/internal/config"
	"github.com/iliyamo/westfest/internal/handler"
	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/media"
	"github.com/iliyamo/westfest/internal/middleware"
	"github.com/iliyamo/westfest/internal/repository"
	"github.com/iliyamo/westfest/internal/router"
	"github.com/iliyamo/westfest/internal/schedule"
	queue_publisher "github.com/iliyamo/westfest/internal/service"
	"github.com/iliyamo/westfest/internal/session"
	"github.com/iliyamo/westfest/internal/storage"
)

type serverDeps struct {
	cfg         config.Config
	festival    config.FestivalConfig
	storage     config.StorageConfig
	cache       config.CacheConfig
	rateLimit   config.RateLimitConfig
	db          *sql.DB
	rdb         *redis.Client
	hub         *session.Hub
	tokens      *repository.TokenRepo
	broadcaster *queue_publisher.SessionPublisher
}

func newServer(d serverDeps) (*http.Server, error) {
	target, err := d.festival.StartTime()
	if err != nil {
		return nil, err
	}
	loc, err := d.festival.Location()
	if err != nil {
		return nil, err
	}
	programme, err := schedule.Load(d.festival.SchedulePath)
	if err != nil {
		return nil, err
	}
	for _, w := range schedule.Validate(programme) {
		log.Warn().Str("day", w.Day).Int("index", w.Index).Str("event", w.Description).Msg(w.Reason)
	}

	files, err := storage.NewFileStore(d.storage.MediaRoot, d.storage.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	var broadcast identity.Broadcaster
	if d.broadcaster != nil {
		broadcast = d.broadcaster
	}
	ids := identity.New(identity.Config{
		JWTSecret:      d.cfg.JWTSecret,
		AccessTTLMin:   d.cfg.AccessTTLMin,
		RefreshTTLDays: d.cfg.RefreshTTLDays,
		BcryptCost:     d.cfg.BcryptCost,
	}, repository.NewUserRepo(d.db), d.tokens, d.hub, broadcast)

	docs := repository.NewDocumentRepo(d.db)
	flows := account.New(ids,
		media.Processor{Width: d.storage.ImageWidth, Quality: d.storage.JPEGQuality, MaxPixels: d.storage.MaxImagePixels},
		files,
		docs,
		account.WithRoutes(d.festival.MainRoute, d.festival.LoginRoute),
	)

	fest := handler.Festival{
		Name:     d.festival.Name,
		Target:   target,
		Location: loc,
		Schedule: programme,
		Clock:    clockwork.NewRealClock(),
		Interval: d.festival.TickInterval,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e, d.db, files.Root())
	router.RegisterAuth(e,
		handler.NewAuthHandler(flows, ids, d.storage.MaxUploadBytes),
		handler.NewProfileHandler(ids, docs),
		d.cfg.JWTSecret, d.rateLimit, d.rdb)
	router.RegisterFestival(e, handler.NewFestivalHandler(fest), d.cache, d.rdb)
	router.RegisterScreens(e, handler.NewScreenHandler(d.hub, fest, d.festival.MainRoute, handler.DefaultScreenConfig()))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", d.cfg.Port),
		Handler:           c.Handler(e),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
