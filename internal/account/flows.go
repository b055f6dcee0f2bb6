package account

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/media"
	"github.com/iliyamo/westfest/internal/model"
)

// Identity is the part of the identity service the flows drive.
type Identity interface {
	SignIn(ctx context.Context, device, email, password string) (identity.Credential, error)
	CreateAccount(ctx context.Context, device, email, password string) (identity.Credential, error)
	SignOut(ctx context.Context, device, refreshRaw string) error
	UpdateProfile(ctx context.Context, uid string, upd identity.ProfileUpdate) (model.Profile, error)
}

// Resizer prepares a picked image for upload.
type Resizer interface {
	Resize(src io.Reader) ([]byte, error)
}

// Objects is the object store.
type Objects interface {
	Upload(ctx context.Context, path string, src io.Reader) error
	DownloadURL(ctx context.Context, path string) (string, error)
}

// Documents is the document store.
type Documents interface {
	Set(ctx context.Context, collection, id string, fields map[string]any) error
}

// UsersCollection holds one profile document per uid.
const UsersCollection = "users"

// SignUpForm is the sign-up screen's input.
type SignUpForm struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	SkipPhoto       bool   `json:"skip_photo" form:"skip_photo"`
}

// Result is the outcome of a flow. Err is nil on success; Route is the
// screen to navigate to, empty when the user stays put.
type Result struct {
	Credential  *identity.Credential `json:"credential,omitempty"`
	Profile     *model.Profile       `json:"profile,omitempty"`
	Route       string               `json:"route,omitempty"`
	Notices     []Notice             `json:"notices,omitempty"`
	UploadError string               `json:"uploadError,omitempty"`
	Err         error                `json:"-"`
}

func (r *Result) notify(title, msg string) {
	r.Notices = append(r.Notices, Notice{Title: title, Message: msg})
}

// Flows wires the account screens to their collaborators.
type Flows struct {
	ids        Identity
	images     Resizer
	objects    Objects
	docs       Documents
	clock      clockwork.Clock
	mainRoute  string
	loginRoute string
}

// Option configures Flows.
type Option func(*Flows)

// WithClock sets the clock used for document timestamps.
func WithClock(c clockwork.Clock) Option { return func(f *Flows) { f.clock = c } }

// WithRoutes sets the post-login and post-logout routes.
func WithRoutes(main, login string) Option {
	return func(f *Flows) { f.mainRoute, f.loginRoute = main, login }
}

// New builds Flows.
func New(ids Identity, images Resizer, objects Objects, docs Documents, opts ...Option) *Flows {
	f := &Flows{
		ids:        ids,
		images:     images,
		objects:    objects,
		docs:       docs,
		clock:      clockwork.NewRealClock(),
		mainRoute:  "/MainContainer",
		loginRoute: "/",
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// LogIn signs device in with email and password.
func (f *Flows) LogIn(ctx context.Context, device, email, password string) (res Result) {
	defer f.recoverTo(&res, "", msgGeneric)

	if strings.TrimSpace(email) == "" || password == "" {
		res.Err = ErrMissingFields
		res.notify("", msgLoginMissing)
		return res
	}
	cred, err := f.ids.SignIn(ctx, device, email, password)
	if err != nil {
		log.Info().Err(err).Str("device", device).Msg("login failed")
		res.Err = err
		res.notify("", loginMessage(err))
		return res
	}
	res.Credential = &cred
	res.Profile = &cred.Session.Profile
	res.Route = f.mainRoute
	return res
}

// SignUp creates an account, uploads the optional photo and records the
// profile document. photo may be nil.
func (f *Flows) SignUp(ctx context.Context, device string, form SignUpForm, photo io.Reader) (res Result) {
	defer f.recoverTo(&res, titleSignupFailed, msgGeneric)

	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Email) == "" ||
		form.Password == "" || form.ConfirmPassword == "" {
		res.Err = ErrMissingFields
		res.notify(titleMissingFields, msgFillAll)
		return res
	}
	if form.Password != form.ConfirmPassword {
		res.Err = ErrPasswordMismatch
		res.notify(titleMismatch, msgMismatch)
		return res
	}

	cred, err := f.ids.CreateAccount(ctx, device, form.Email, form.Password)
	if err != nil {
		log.Info().Err(err).Msg("sign-up failed")
		res.Err = err
		res.notify(titleSignupFailed, signupMessage(err))
		return res
	}
	res.Credential = &cred
	uid := cred.Session.Profile.UID

	var photoURL string
	if !form.SkipPhoto && photo != nil {
		url, err := f.uploadPhoto(ctx, uid, photo)
		switch {
		case errors.Is(err, media.ErrNoImage):
		case err != nil:
			log.Warn().Err(err).Str("uid", uid).Msg("profile photo upload failed")
			res.UploadError = uploadMessage(err)
			res.notify(titleUploadError, res.UploadError)
		default:
			photoURL = url
		}
	}

	name := strings.TrimSpace(form.Name)
	profile, err := f.ids.UpdateProfile(ctx, uid, identity.ProfileUpdate{DisplayName: name, PhotoURL: photoURL})
	if err != nil {
		return f.fail(res, uid, "update profile", err)
	}
	res.Profile = &profile

	doc := map[string]any{
		"uid":         uid,
		"displayName": name,
		"email":       profile.Email,
		"photoURL":    nullable(photoURL),
		"createdAt":   f.clock.Now().UTC(),
	}
	if err := f.docs.Set(ctx, UsersCollection, uid, doc); err != nil {
		return f.fail(res, uid, "write user document", err)
	}

	res.notify(titleSuccess, msgCreated)
	res.Route = f.mainRoute
	log.Info().Str("uid", uid).Bool("photo", photoURL != "").Msg("sign-up complete")
	return res
}

// SignOut ends the session on device.
func (f *Flows) SignOut(ctx context.Context, device, refreshRaw string) (res Result) {
	defer f.recoverTo(&res, "", msgLogoutFailed)

	if err := f.ids.SignOut(ctx, device, refreshRaw); err != nil {
		log.Error().Err(err).Str("device", device).Msg("error logging out")
		res.Err = err
		res.notify("", msgLogoutFailed)
		return res
	}
	res.Route = f.loginRoute
	return res
}

func (f *Flows) uploadPhoto(ctx context.Context, uid string, photo io.Reader) (string, error) {
	data, err := f.images.Resize(photo)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("users/%s/profile.jpg", uid)
	if err := f.objects.Upload(ctx, path, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return f.objects.DownloadURL(ctx, path)
}

func (f *Flows) fail(res Result, uid, step string, err error) Result {
	log.Error().Err(err).Str("uid", uid).Str("step", step).Msg("sign-up process error")
	res.Err = err
	res.notify(titleSignupFailed, msgGeneric)
	return res
}

func (f *Flows) recoverTo(res *Result, title, msg string) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Msg("account flow panicked")
		res.Route = ""
		res.Err = fmt.Errorf("account: unexpected failure: %v", r)
		res.notify(title, msg)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
