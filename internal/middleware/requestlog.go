package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request through zerolog.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			res := c.Response()
			lvl := zerolog.InfoLevel
			switch {
			case res.Status >= 500:
				lvl = zerolog.ErrorLevel
			case res.Status >= 400:
				lvl = zerolog.WarnLevel
			}
			ev := log.WithLevel(lvl).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP())
			if d := DeviceID(c); d != "" {
				ev = ev.Str("device", d)
			}
			if err != nil {
				ev = ev.Err(err)
			}
			ev.Msg("request")
			return nil
		}
	}
}
