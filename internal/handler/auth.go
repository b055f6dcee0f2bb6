// Package handler holds the echo handlers of the festival API.
package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/account"
	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/middleware"
)

// Refresher rotates refresh tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshRaw string) (identity.Credential, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Flows          *account.Flows
	Tokens         Refresher
	MaxUploadBytes int64
}

func NewAuthHandler(flows *account.Flows, tokens Refresher, maxUpload int64) *AuthHandler {
	return &AuthHandler{Flows: flows, Tokens: tokens, MaxUploadBytes: maxUpload}
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Register runs the sign-up flow. The body is JSON or a multipart form
// with an optional "photo" file.
func (h *AuthHandler) Register(c echo.Context) error {
	var form account.SignUpForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	photo, closePhoto, herr := h.photo(c)
	if herr != nil {
		return c.JSON(herr.Code, echo.Map{"error": herr.Message})
	}
	defer closePhoto()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	res := h.Flows.SignUp(ctx, middleware.DeviceID(c), form, photo)
	if res.Err != nil {
		return c.JSON(flowStatus(res.Err), res)
	}
	return c.JSON(http.StatusCreated, res)
}

// Login runs the login flow.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res := h.Flows.LogIn(ctx, middleware.DeviceID(c), req.Email, req.Password)
	if res.Err != nil {
		return c.JSON(flowStatus(res.Err), res)
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh exchanges a refresh token for a new credential pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cred, err := h.Tokens.Refresh(ctx, req.RefreshToken)
	if errors.Is(err, identity.ErrInvalidRefresh) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if errors.Is(err, identity.ErrUserDisabled) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	if err != nil {
		log.Error().Err(err).Msg("refresh failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, cred)
}

// Logout signs the device out and revokes the refresh token if one is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	device := middleware.DeviceID(c)
	if device == "" && strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide X-Device-ID or refresh_token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res := h.Flows.SignOut(ctx, device, req.RefreshToken)
	if res.Err != nil {
		return c.JSON(http.StatusInternalServerError, res)
	}
	return c.JSON(http.StatusOK, res)
}

// photo returns the uploaded "photo" file, or nil when none was sent.
func (h *AuthHandler) photo(c echo.Context) (io.Reader, func(), *echo.HTTPError) {
	noop := func() {}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, noop, nil
	}
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid photo")
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return nil, noop, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "photo too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid photo")
	}
	return f, func() { closeFile(f) }, nil
}

func closeFile(f multipart.File) { _ = f.Close() }

// flowStatus maps a failed flow to an HTTP status.
func flowStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrPasswordMismatch),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, identity.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrUserDisabled):
		return http.StatusForbidden
	case errors.Is(err, identity.ErrEmailInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
