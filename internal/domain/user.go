package domain

import (
	"strings"
	"time"
)

// User represents a console account
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	NormalizedEmail string    `json:"normalizedEmail"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"passwordHash"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can sign in with a password.
// Accounts provisioned through the external identity provider have no hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Public returns the fields safe to send to a client
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PublicUser is the client-facing projection of a User
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NormalizeEmail trims and lower-cases an email for uniqueness checks and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserCreate represents user registration data
type UserCreate struct {
	Name     string `json:"name" label:"Name" validate:"required,min=2,max=60"`
	Email    string `json:"email" label:"Email" validate:"required,email,max=255"`
	Password string `json:"password" label:"Password" validate:"required,min=8,max=72"`
}

// UserLogin represents sign-in credentials
type UserLogin struct {
	Email    string `json:"email" label:"Email" validate:"required,email"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// ProfileUpdate represents a profile settings change
type ProfileUpdate struct {
	Name  string `json:"name" label:"Name" validate:"required,min=2,max=60"`
	Email string `json:"email" label:"Email" validate:"required,email,max=255"`
}

// PasswordChange represents a password settings change
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" label:"Current password" validate:"required,min=8"`
	NewPassword     string `json:"newPassword" label:"New password" validate:"required,min=8,max=72"`
}

// Session is the authenticated identity carried by a session token
type Session struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// SessionToken is returned to the client after sign-in or refresh
type SessionToken struct {
	User      PublicUser `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}
