// Package identity signs users in and out, creates accounts and keeps the
// per-device session stream in the hub up to date.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/model"
	"github.com/iliyamo/westfest/internal/repository"
	"github.com/iliyamo/westfest/internal/utils"
)

// MinPasswordLength is the shortest password CreateAccount accepts.
const MinPasswordLength = 6

// Users is the account store.
type Users interface {
	Create(ctx context.Context, email, passwordHash string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, id, displayName, photoURL string) (model.User, error)
}

// Tokens is the refresh token store.
type Tokens interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Sessions is the per-device session stream.
type Sessions interface {
	Publish(key string, snap model.Session)
	Subscribe(key string, fn func(model.Session)) func()
	Current(key string) model.Session
	DevicesFor(uid string) []string
}

// Broadcaster forwards a session change to other instances.
type Broadcaster interface {
	Broadcast(ctx context.Context, device string, snap model.Session) error
}

// Config holds the token parameters.
type Config struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Credential is what a successful sign-in hands back to the client.
type Credential struct {
	Session model.Session      `json:"session"`
	Access  utils.AccessToken  `json:"access"`
	Refresh utils.RefreshToken `json:"refresh"`
}

// ProfileUpdate is the mutable part of a profile.
type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Service implements the identity operations.
type Service struct {
	cfg       Config
	users     Users
	tokens    Tokens
	sessions  Sessions
	broadcast Broadcaster
}

// New builds a Service. broadcast may be nil.
func New(cfg Config, users Users, tokens Tokens, sessions Sessions, broadcast Broadcaster) *Service {
	return &Service{cfg: cfg, users: users, tokens: tokens, sessions: sessions, broadcast: broadcast}
}

// SignIn checks the credentials and marks device as signed in.
func (s *Service) SignIn(ctx context.Context, device, email, password string) (Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Credential{}, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Credential{}, ErrUserNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Credential{}, ErrUserDisabled
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Credential{}, ErrWrongPassword
	}
	return s.establish(ctx, device, u)
}

// CreateAccount registers a new user and signs device in as that user.
func (s *Service) CreateAccount(ctx context.Context, device, email, password string) (Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Credential{}, err
	}
	if len(password) < MinPasswordLength {
		return Credential{}, ErrWeakPassword
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return Credential{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, email, hash)
	if errors.Is(err, repository.ErrEmailExists) {
		return Credential{}, ErrEmailInUse
	}
	if err != nil {
		return Credential{}, fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("uid", u.ID).Msg("account created")
	return s.establish(ctx, device, u)
}

// SignOut revokes refreshRaw (when given) and marks device signed out.
func (s *Service) SignOut(ctx context.Context, device, refreshRaw string) error {
	if raw := strings.TrimSpace(refreshRaw); raw != "" {
		if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return fmt.Errorf("revoke refresh: %w", err)
		}
	}
	s.publish(ctx, device, model.SignedOut)
	return nil
}

// SignOutEverywhere revokes every refresh token of uid and marks each device
// signed in as uid signed out.
func (s *Service) SignOutEverywhere(ctx context.Context, uid string) error {
	if err := s.tokens.RevokeAllForUser(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	devices := s.sessions.DevicesFor(uid)
	for _, device := range devices {
		s.publish(ctx, device, model.SignedOut)
	}
	log.Info().Str("uid", uid).Int("devices", len(devices)).Msg("signed out everywhere")
	return nil
}

// UpdateProfile stores the new profile and republishes it to every device
// signed in as uid.
func (s *Service) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (model.Profile, error) {
	u, err := s.users.UpdateProfile(ctx, uid, strings.TrimSpace(upd.DisplayName), strings.TrimSpace(upd.PhotoURL))
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, ErrUserNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	for _, device := range s.sessions.DevicesFor(uid) {
		s.publish(ctx, device, model.SignedIn(u))
	}
	return u.Profile(), nil
}

// Profile loads the public profile of uid.
func (s *Service) Profile(ctx context.Context, uid string) (model.Profile, error) {
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, ErrUserNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (Credential, error) {
	raw := strings.TrimSpace(refreshRaw)
	if raw == "" {
		return Credential{}, ErrInvalidRefresh
	}
	hash := utils.HashRefreshRaw(raw)
	uid, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return Credential{}, ErrInvalidRefresh
	}
	if err != nil {
		return Credential{}, fmt.Errorf("validate refresh: %w", err)
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Credential{}, fmt.Errorf("revoke refresh: %w", err)
	}
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return Credential{}, ErrInvalidRefresh
	}
	if err != nil {
		return Credential{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		if err := s.SignOutEverywhere(ctx, u.ID); err != nil {
			log.Error().Err(err).Str("uid", u.ID).Msg("revoke disabled user's tokens")
		}
		return Credential{}, ErrUserDisabled
	}
	return s.issue(ctx, u)
}

// Subscribe registers fn for session changes on device.
func (s *Service) Subscribe(device string, fn func(model.Session)) func() {
	return s.sessions.Subscribe(device, fn)
}

// Current returns the latest session of device.
func (s *Service) Current(device string) model.Session {
	return s.sessions.Current(device)
}

func (s *Service) establish(ctx context.Context, device string, u model.User) (Credential, error) {
	cred, err := s.issue(ctx, u)
	if err != nil {
		return Credential{}, err
	}
	s.publish(ctx, device, cred.Session)
	return cred, nil
}

func (s *Service) issue(ctx context.Context, u model.User) (Credential, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, s.cfg.AccessTTLMin)
	if err != nil {
		return Credential{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Credential{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Credential{}, fmt.Errorf("save refresh: %w", err)
	}
	return Credential{Session: model.SignedIn(u), Access: access, Refresh: refresh}, nil
}

func (s *Service) publish(ctx context.Context, device string, snap model.Session) {
	if device == "" {
		return
	}
	s.sessions.Publish(device, snap)
	if s.broadcast == nil {
		return
	}
	if err := s.broadcast.Broadcast(ctx, device, snap); err != nil {
		log.Warn().Err(err).Str("device", device).Msg("session broadcast failed")
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}
