package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderDeviceID names the client device a request acts for.
const HeaderDeviceID = "X-Device-ID"

// UserID returns the uid set by JWTAuth, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok {
		return v
	}
	return ""
}

// DeviceID returns the device key of the request: the X-Device-ID header,
// else the "device" query or form value.
func DeviceID(c echo.Context) string {
	if v := strings.TrimSpace(c.Request().Header.Get(HeaderDeviceID)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.QueryParam("device")); v != "" {
		return v
	}
	return strings.TrimSpace(c.FormValue("device"))
}

func identityOr(c echo.Context, fallback string) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return fallback
}
