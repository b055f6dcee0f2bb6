package model

import "time"

// User represents an account record as stored in the `users` table.
// ID is a random UUID string and doubles as the public uid handed to
// clients and used in storage paths (users/{uid}/profile.jpg).
//
// Fields:
//
//	ID           – users.id (CHAR(36)).
//	Email        – unique, normalized email address.
//	PasswordHash – bcrypt hashed password.
//	DisplayName  – name shown in the profile modal; empty until set.
//	PhotoURL     – download URL of the profile picture; empty when none.
//	IsActive     – whether the account may sign in.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public part of a user.
type Profile struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Profile projects the user onto its public fields.
func (u User) Profile() Profile {
	return Profile{UID: u.ID, Email: u.Email, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
}

// Greeting returns the profile modal headline.
func (p Profile) Greeting() string {
	if p.DisplayName == "" {
		return "Hi there!"
	}
	return "Hi, " + p.DisplayName + "!"
}

// Session is the most recently observed authentication state for one device.
// The zero value is the unauthenticated session.
type Session struct {
	Authenticated bool    `json:"authenticated"`
	Profile       Profile `json:"profile"`
}

// SignedOut is the unauthenticated session.
var SignedOut = Session{}

// SignedIn builds an authenticated session for u.
func SignedIn(u User) Session {
	return Session{Authenticated: true, Profile: u.Profile()}
}
