package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored credentials
const PasswordCost = 12

// HashPassword hashes a password with bcrypt. Passwords longer than 72 bytes are a validation error.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", domain.NewValidationError("Password must be at most 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the bcrypt hash
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DemoAccountConfig describes the configured bootstrap account
type DemoAccountConfig struct {
	ID           string
	Email        string
	Name         string
	Password     string
	PasswordHash string
}

// DemoAccount is a single configured account that exists outside the credential store
type DemoAccount struct {
	user      domain.User
	password  string
	plaintext bool
}

// NewDemoAccount builds the demo account. A bcrypt hash takes precedence over
// the plaintext password when both are configured.
func NewDemoAccount(cfg DemoAccountConfig) (*DemoAccount, error) {
	if cfg.ID == "" || cfg.Email == "" {
		return nil, errors.New("demo account requires an id and an email")
	}
	if cfg.PasswordHash == "" && cfg.Password == "" {
		return nil, errors.New("demo account requires a password or a password hash")
	}
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid demo password hash: %w", err)
		}
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Email
	}

	epoch := time.Unix(0, 0).UTC()
	return &DemoAccount{
		user: domain.User{
			ID:              cfg.ID,
			Email:           cfg.Email,
			NormalizedEmail: domain.NormalizeEmail(cfg.Email),
			Name:            name,
			PasswordHash:    cfg.PasswordHash,
			CreatedAt:       epoch,
			UpdatedAt:       epoch,
		},
		password:  cfg.Password,
		plaintext: cfg.PasswordHash == "",
	}, nil
}

// Plaintext reports whether the account is verified against a plaintext password
func (d *DemoAccount) Plaintext() bool {
	return d.plaintext
}

// Matches reports whether email refers to the demo account
func (d *DemoAccount) Matches(email string) bool {
	return domain.NormalizeEmail(email) == d.user.NormalizedEmail
}

// IsAccount reports whether the user id belongs to the demo account
func (d *DemoAccount) IsAccount(userID string) bool {
	return userID == d.user.ID
}

// Verify checks the password for the demo account
func (d *DemoAccount) Verify(password string) bool {
	if !d.plaintext {
		return VerifyPassword(d.user.PasswordHash, password)
	}

	log.Warn().
		Str("user_id", d.user.ID).
		Msg("demo account verified against a plaintext password; this path is insecure and for demos only")
	return subtle.ConstantTimeCompare([]byte(d.password), []byte(password)) == 1
}

// User returns a copy of the demo account record
func (d *DemoAccount) User() *domain.User {
	u := d.user
	return &u
}
