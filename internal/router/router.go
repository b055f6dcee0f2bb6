// Package router registers the API routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/westfest/internal/config"
	"github.com/iliyamo/westfest/internal/handler"
	"github.com/iliyamo/westfest/internal/middleware"
)

// RegisterRoutes registers the unauthenticated infrastructure routes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, mediaRoot string) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
	if mediaRoot != "" {
		e.Static("/media", mediaRoot)
	}
}

// RegisterAuth registers the credential routes under /v1/auth, rate limited
// per client, and the profile routes under /v1 behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	me.GET("", p.Me)
	me.PATCH("", p.Update)
	me.POST("/logout-all", p.SignOutAll)
}

// RegisterFestival registers the countdown and programme routes. Programme
// responses go through the Redis cache; the countdown is computed per request.
func RegisterFestival(e *echo.Echo, f *handler.FestivalHandler, cc config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/festival/countdown", f.Countdown)

	cached := e.Group("/v1", middleware.NewRedisCache(cc, rdb))
	cached.GET("/schedule", f.Schedule)
	cached.GET("/schedule.ics", f.Calendar)
	cached.GET("/schedule/:day", f.Day)
}

// RegisterScreens registers the websocket screens.
func RegisterScreens(e *echo.Echo, s *handler.ScreenHandler) {
	e.GET("/v1/ws/entry", s.Entry)
	e.GET("/v1/ws/home", s.Home)
}
