// Package account runs the login, sign-up and sign-out flows and turns
// their outcomes into user-facing notices.
package account

import (
	"errors"

	"github.com/iliyamo/westfest/internal/identity"
	"github.com/iliyamo/westfest/internal/media"
)

// Notice is a transient, dismissible message for the user. Title may be
// empty.
type Notice struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Flow failures that happen before the identity service is called.
var (
	ErrMissingFields    = errors.New("account: missing fields")
	ErrPasswordMismatch = errors.New("account: passwords do not match")
)

const (
	titleMissingFields = "Missing Fields"
	titleMismatch      = "Password Mismatch"
	titleSignupFailed  = "Signup Failed"
	titleUploadError   = "Image Upload Error"
	titleSuccess       = "Success 🎉"

	msgLoginMissing  = "Please enter email and password"
	msgFillAll       = "Please fill all fields."
	msgMismatch      = "Passwords do not match."
	msgInvalidEmail  = "Invalid email address."
	msgNoAccount     = "No account found with this email."
	msgWrongPassword = "Incorrect password."
	msgEmailInUse    = "Email is already in use."
	msgWeakPassword  = "Password should be at least 6 characters."
	msgGeneric       = "Something went wrong. Please try again."
	msgCreated       = "Your account has been created."
	msgLogoutFailed  = "Error logging out. Please try again."
	msgUploadFailed  = "Your photo could not be uploaded. You can add one later."
	msgImageTooLarge = "That image is too large. Please choose a smaller one."
)

// loginMessage maps a sign-in failure to its fixed message.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, identity.ErrUserNotFound):
		return msgNoAccount
	case errors.Is(err, identity.ErrWrongPassword):
		return msgWrongPassword
	default:
		return msgGeneric
	}
}

// uploadMessage maps a photo upload failure to its fixed message. The raw
// error stays in the log.
func uploadMessage(err error) string {
	if errors.Is(err, media.ErrTooLarge) {
		return msgImageTooLarge
	}
	return msgUploadFailed
}

// signupMessage maps an account-creation failure to its fixed message.
func signupMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, identity.ErrEmailInUse):
		return msgEmailInUse
	case errors.Is(err, identity.ErrWeakPassword):
		return msgWeakPassword
	default:
		return msgGeneric
	}
}
