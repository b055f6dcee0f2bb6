package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/media"
	"github.com/iliyamo/westfest/internal/model"
)

type fakeIdentity struct {
	signInErr  error
	createErr  error
	signOutErr error
	updateErr  error

	createCalls int
	updates     []identity.ProfileUpdate
}

func (f *fakeIdentity) SignIn(_ context.Context, _, email, _ string) (identity.Credential, error) {
	if f.signInErr != nil {
		return identity.Credential{}, f.signInErr
	}
	return cred(email), nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, _, email, _ string) (identity.Credential, error) {
	f.createCalls++
	if f.createErr != nil {
		return identity.Credential{}, f.createErr
	}
	return cred(email), nil
}

func (f *fakeIdentity) SignOut(context.Context, string, string) error { return f.signOutErr }

func (f *fakeIdentity) UpdateProfile(_ context.Context, uid string, upd identity.ProfileUpdate) (model.Profile, error) {
	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return model.Profile{}, f.updateErr
	}
	return model.Profile{UID: uid, Email: "ann@example.com", DisplayName: upd.DisplayName, PhotoURL: upd.PhotoURL}, nil
}

func cred(email string) identity.Credential {
	return identity.Credential{Session: model.Session{
		Authenticated: true,
		Profile:       model.Profile{UID: "u1", Email: email},
	}}
}

type fakeResizer struct{ err error }

func (r fakeResizer) Resize(src io.Reader) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return io.ReadAll(src)
}

type fakeObjects struct {
	uploadErr error
	stored    map[string]string
}

func (o *fakeObjects) Upload(_ context.Context, path string, src io.Reader) error {
	if o.uploadErr != nil {
		return o.uploadErr
	}
	b, _ := io.ReadAll(src)
	if o.stored == nil {
		o.stored = map[string]string{}
	}
	o.stored[path] = string(b)
	return nil
}

func (o *fakeObjects) DownloadURL(_ context.Context, path string) (string, error) {
	return "http://media/" + path, nil
}

type fakeDocs struct {
	err  error
	docs map[string]map[string]any
}

func (d *fakeDocs) Set(_ context.Context, collection, id string, fields map[string]any) error {
	if d.err != nil {
		return d.err
	}
	if d.docs == nil {
		d.docs = map[string]map[string]any{}
	}
	d.docs[collection+"/"+id] = fields
	return nil
}

var created = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

func newFlows(ids *fakeIdentity, rs fakeResizer, objs *fakeObjects, docs *fakeDocs) *Flows {
	return New(ids, rs, objs, docs, WithClock(clockwork.NewFakeClockAt(created)), WithRoutes("/MainContainer", "/"))
}

func validForm() SignUpForm {
	return SignUpForm{Name: "Ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret1"}
}

func only(t *testing.T, res Result) Notice {
	t.Helper()
	if len(res.Notices) != 1 {
		t.Fatalf("notices = %+v, want exactly one", res.Notices)
	}
	return res.Notices[0]
}

func TestLogInMissingFields(t *testing.T) {
	ids := &fakeIdentity{signInErr: errors.New("must not be called")}
	res := newFlows(ids, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).LogIn(context.Background(), "d", "", "pw")
	if n := only(t, res); n.Message != "Please enter email and password" {
		t.Fatalf("message = %q", n.Message)
	}
	if !errors.Is(res.Err, ErrMissingFields) {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestLogInErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{identity.ErrInvalidEmail, "Invalid email address."},
		{identity.ErrUserNotFound, "No account found with this email."},
		{identity.ErrWrongPassword, "Incorrect password."},
		{errors.New("db down"), "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		ids := &fakeIdentity{signInErr: tc.err}
		res := newFlows(ids, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).LogIn(context.Background(), "d", "a@b.ie", "pw")
		if n := only(t, res); n.Message != tc.want {
			t.Fatalf("%v: message = %q, want %q", tc.err, n.Message, tc.want)
		}
		if res.Route != "" || res.Credential != nil {
			t.Fatalf("%v: failed login navigated to %q", tc.err, res.Route)
		}
	}
}

func TestLogInSuccessNavigatesToMain(t *testing.T) {
	res := newFlows(&fakeIdentity{}, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).LogIn(context.Background(), "d", "a@b.ie", "pw")
	if res.Err != nil || res.Route != "/MainContainer" || res.Credential == nil {
		t.Fatalf("result = %+v", res)
	}
}

func TestSignUpPasswordMismatchSkipsCreate(t *testing.T) {
	ids := &fakeIdentity{}
	form := validForm()
	form.ConfirmPassword = "secret2"
	res := newFlows(ids, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).SignUp(context.Background(), "d", form, nil)

	n := only(t, res)
	if n.Title != "Password Mismatch" || n.Message != "Passwords do not match." {
		t.Fatalf("notice = %+v", n)
	}
	if ids.createCalls != 0 {
		t.Fatalf("CreateAccount called %d times, want 0", ids.createCalls)
	}
}

func TestSignUpMissingFields(t *testing.T) {
	ids := &fakeIdentity{}
	form := validForm()
	form.Name = "  "
	res := newFlows(ids, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).SignUp(context.Background(), "d", form, nil)
	if n := only(t, res); n.Title != "Missing Fields" || n.Message != "Please fill all fields." {
		t.Fatalf("notice = %+v", n)
	}
	if ids.createCalls != 0 {
		t.Fatal("CreateAccount called with missing fields")
	}
}

func TestSignUpCreateErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{identity.ErrInvalidEmail, "Invalid email address."},
		{identity.ErrEmailInUse, "Email is already in use."},
		{identity.ErrWeakPassword, "Password should be at least 6 characters."},
		{errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		ids := &fakeIdentity{createErr: tc.err}
		res := newFlows(ids, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).SignUp(context.Background(), "d", validForm(), nil)
		n := only(t, res)
		if n.Title != "Signup Failed" || n.Message != tc.want {
			t.Fatalf("%v: notice = %+v", tc.err, n)
		}
		if len(ids.updates) != 0 {
			t.Fatalf("%v: profile updated after failed create", tc.err)
		}
	}
}

func TestSignUpWithPhoto(t *testing.T) {
	ids, objs, docs := &fakeIdentity{}, &fakeObjects{}, &fakeDocs{}
	res := newFlows(ids, fakeResizer{}, objs, docs).SignUp(context.Background(), "d", validForm(), strings.NewReader("img"))

	if res.Err != nil || res.Route != "/MainContainer" {
		t.Fatalf("result = %+v", res)
	}
	if n := only(t, res); n.Title != "Success 🎉" || n.Message != "Your account has been created." {
		t.Fatalf("notice = %+v", n)
	}
	if objs.stored["users/u1/profile.jpg"] != "img" {
		t.Fatalf("stored = %v", objs.stored)
	}
	if got := ids.updates[0].PhotoURL; got != "http://media/users/u1/profile.jpg" {
		t.Fatalf("photo url = %q", got)
	}
	doc := docs.docs["users/u1"]
	if doc["uid"] != "u1" || doc["displayName"] != "Ann" || doc["photoURL"] != "http://media/users/u1/profile.jpg" {
		t.Fatalf("doc = %v", doc)
	}
	if doc["createdAt"] != created {
		t.Fatalf("createdAt = %v, want %v", doc["createdAt"], created)
	}
}

func TestSignUpUploadFailureDegrades(t *testing.T) {
	ids, docs := &fakeIdentity{}, &fakeDocs{}
	objs := &fakeObjects{uploadErr: errors.New("open /srv/media/users/u1/profile.jpg: disk full")}
	res := newFlows(ids, fakeResizer{}, objs, docs).SignUp(context.Background(), "d", validForm(), strings.NewReader("img"))

	if res.Err != nil {
		t.Fatalf("err = %v, want success", res.Err)
	}
	if res.UploadError == "" || strings.Contains(res.UploadError, "/srv/media") {
		t.Fatalf("upload error = %q, want fixed message", res.UploadError)
	}
	if strings.Contains(res.Notices[0].Message, "disk full") {
		t.Fatalf("notice leaks storage error: %q", res.Notices[0].Message)
	}
	if len(res.Notices) != 2 || res.Notices[0].Title != "Image Upload Error" || res.Notices[1].Title != "Success 🎉" {
		t.Fatalf("notices = %+v", res.Notices)
	}
	if len(ids.updates) != 1 || ids.updates[0].PhotoURL != "" {
		t.Fatalf("updates = %+v", ids.updates)
	}
	if doc := docs.docs["users/u1"]; doc == nil || doc["photoURL"] != nil {
		t.Fatalf("doc = %v", doc)
	}
	if res.Route != "/MainContainer" {
		t.Fatalf("route = %q", res.Route)
	}
}

func TestSignUpOversizedImageDegrades(t *testing.T) {
	ids, objs := &fakeIdentity{}, &fakeObjects{}
	tooLarge := fmt.Errorf("%w: 16000x16000", media.ErrTooLarge)
	res := newFlows(ids, fakeResizer{err: tooLarge}, objs, &fakeDocs{}).
		SignUp(context.Background(), "d", validForm(), strings.NewReader("img"))

	if res.Err != nil {
		t.Fatalf("err = %v, want success", res.Err)
	}
	if len(res.Notices) != 2 || res.Notices[0].Title != "Image Upload Error" {
		t.Fatalf("notices = %+v", res.Notices)
	}
	if got, want := res.Notices[0].Message, "That image is too large. Please choose a smaller one."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if len(objs.stored) != 0 {
		t.Fatalf("stored = %v, want nothing uploaded", objs.stored)
	}
}

func TestSignUpCancelledPickerIsSilent(t *testing.T) {
	res := newFlows(&fakeIdentity{}, fakeResizer{err: media.ErrNoImage}, &fakeObjects{}, &fakeDocs{}).
		SignUp(context.Background(), "d", validForm(), strings.NewReader(""))
	if n := only(t, res); n.Title != "Success 🎉" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestSignUpSkipPhoto(t *testing.T) {
	objs := &fakeObjects{}
	form := validForm()
	form.SkipPhoto = true
	res := newFlows(&fakeIdentity{}, fakeResizer{}, objs, &fakeDocs{}).SignUp(context.Background(), "d", form, strings.NewReader("img"))
	if res.Err != nil || len(objs.stored) != 0 {
		t.Fatalf("result = %+v, stored = %v", res, objs.stored)
	}
}

func TestSignUpDocumentFailure(t *testing.T) {
	res := newFlows(&fakeIdentity{}, fakeResizer{}, &fakeObjects{}, &fakeDocs{err: errors.New("db")}).
		SignUp(context.Background(), "d", validForm(), nil)
	if n := only(t, res); n.Title != "Signup Failed" || n.Message != "Something went wrong. Please try again." {
		t.Fatalf("notice = %+v", n)
	}
	if res.Route != "" {
		t.Fatalf("route = %q, want none", res.Route)
	}
}

type panicIdentity struct{ fakeIdentity }

func (panicIdentity) SignIn(context.Context, string, string, string) (identity.Credential, error) {
	panic("nil map")
}

func TestLogInRecoversFromPanic(t *testing.T) {
	res := New(&panicIdentity{}, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).LogIn(context.Background(), "d", "a@b.ie", "pw")
	if res.Err == nil {
		t.Fatal("panic not reported")
	}
	if n := only(t, res); n.Message != "Something went wrong. Please try again." {
		t.Fatalf("notice = %+v", n)
	}
}

func TestSignOut(t *testing.T) {
	res := newFlows(&fakeIdentity{}, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).SignOut(context.Background(), "d", "")
	if res.Err != nil || res.Route != "/" {
		t.Fatalf("result = %+v", res)
	}
	res = newFlows(&fakeIdentity{signOutErr: errors.New("x")}, fakeResizer{}, &fakeObjects{}, &fakeDocs{}).SignOut(context.Background(), "d", "")
	if n := only(t, res); n.Message != "Error logging out. Please try again." || res.Route != "" {
		t.Fatalf("result = %+v", res)
	}
}
