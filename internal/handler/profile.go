package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/account"
	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/middleware"
	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/repository"
)

// Profiles reads and updates user profiles.
type Profiles interface {
	Profile(ctx context.Context, uid string) (model.Profile, error)
	UpdateProfile(ctx context.Context, uid string, upd identity.ProfileUpdate) (model.Profile, error)
	SignOutEverywhere(ctx context.Context, uid string) error
}

// UserDocuments reads the users/{uid} documents written at sign-up.
type UserDocuments interface {
	Get(ctx context.Context, collection, id string) (repository.Document, error)
}

// ProfileHandler serves the profile modal of the home screen. Docs is
// optional.
type ProfileHandler struct {
	Profiles Profiles
	Docs     UserDocuments
}

func NewProfileHandler(p Profiles, docs UserDocuments) *ProfileHandler {
	return &ProfileHandler{Profiles: p, Docs: docs}
}

type profileResp struct {
	Profile     model.Profile `json:"profile"`
	Greeting    string        `json:"greeting"`
	MemberSince *time.Time    `json:"memberSince,omitempty"`
}

// Me returns the signed-in user's profile and greeting.
func (h *ProfileHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := middleware.UserID(c)
	p, err := h.Profiles.Profile(ctx, uid)
	if err != nil {
		return profileError(c, err)
	}
	resp := profileResp{Profile: p, Greeting: p.Greeting()}
	if h.Docs != nil {
		doc, err := h.Docs.Get(ctx, account.UsersCollection, uid)
		switch {
		case err == nil:
			created := doc.CreatedAt.UTC()
			resp.MemberSince = &created
		case !errors.Is(err, repository.ErrNotFound):
			log.Warn().Err(err).Str("uid", uid).Msg("user document unavailable")
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// SignOutAll ends every session of the signed-in user.
func (h *ProfileHandler) SignOutAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.SignOutEverywhere(ctx, middleware.UserID(c)); err != nil {
		log.Error().Err(err).Str("uid", middleware.UserID(c)).Msg("sign out everywhere failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not sign out"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Update changes the display name and photo URL.
func (h *ProfileHandler) Update(c echo.Context) error {
	var upd identity.ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.UpdateProfile(ctx, middleware.UserID(c), upd)
	if err != nil {
		return profileError(c, err)
	}
	return c.JSON(http.StatusOK, profileResp{Profile: p, Greeting: p.Greeting()})
}

func profileError(c echo.Context, err error) error {
	if errors.Is(err, identity.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	log.Error().Err(err).Str("uid", middleware.UserID(c)).Msg("profile request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile unavailable"})
}
