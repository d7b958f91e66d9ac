package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/rs/zerolog/log"
)

const registrationUnavailable = "User registration is temporarily unavailable while the database connection is not configured."

// Revoker records signed-out session ids
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// AuthOptions holds the optional collaborators of AuthService
type AuthOptions struct {
	// Demo is consulted before the store when demo mode is enabled
	Demo *security.DemoAccount

	// AllowRegistration is false when new accounts would land in a store that is not meant to keep them
	AllowRegistration bool

	Revoker  Revoker
	Recorder Recorder
}

// AuthService handles authentication and account settings
type AuthService struct {
	users     domain.UserRepository
	sessions  *security.SessionManager
	validator *security.Validator
	demo      *security.DemoAccount
	allowReg  bool
	revoker   Revoker
	recorder  Recorder
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users domain.UserRepository,
	sessions *security.SessionManager,
	validator *security.Validator,
	opts AuthOptions,
) *AuthService {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &AuthService{
		users:     users,
		sessions:  sessions,
		validator: validator,
		demo:      opts.Demo,
		allowReg:  opts.AllowRegistration,
		revoker:   opts.Revoker,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Register creates a new account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.PublicUser, error) {
	if !s.allowReg {
		return nil, &domain.NotConfiguredError{Message: registrationUnavailable}
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	if s.demo != nil && s.demo.Matches(input.Email) {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           input.Email,
		NormalizedEmail: domain.NormalizeEmail(input.Email),
		Name:            input.Name,
		PasswordHash:    hash,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("Account created")

	public := user.Public()
	return &public, nil
}

// Authenticate verifies credentials. Every rejection is ErrInvalidCredentials;
// the reason is only logged.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	reject := func(reason string) (*domain.User, error) {
		s.recorder.SignInAttempt(OutcomeFailure)
		log.Info().Str("reason", reason).Msg("Sign-in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	email = strings.TrimSpace(email)
	if err := s.validator.Struct(domain.UserLogin{Email: email, Password: password}); err != nil {
		return reject("malformed input")
	}

	if s.demo != nil && s.demo.Matches(email) {
		if !s.demo.Verify(password) {
			return reject("demo password mismatch")
		}
		s.recorder.SignInAttempt(OutcomeDemo)
		return s.demo.User(), nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return reject("unknown email")
		}
		s.recorder.SignInAttempt(OutcomeError)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.HasPassword() {
		return reject("account has no password")
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		return reject("password mismatch")
	}

	s.recorder.SignInAttempt(OutcomeSuccess)
	return user, nil
}

// SignIn authenticates and issues a session token
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.SessionToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.sessions.Issue(user.Public())
}

// SignInExternal finds or provisions the account for an identity confirmed by the
// external provider and issues a session. Provisioned accounts have no password.
func (s *AuthService) SignInExternal(ctx context.Context, identity *security.ExternalIdentity) (*domain.SessionToken, error) {
	if identity == nil || strings.TrimSpace(identity.Email) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	email := strings.TrimSpace(identity.Email)
	if s.demo != nil && s.demo.Matches(email) {
		s.recorder.SignInAttempt(OutcomeFailure)
		log.Warn().Msg("External identity collides with the demo account")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.provision(ctx, identity.Name, email)
	}
	if err != nil {
		s.recorder.SignInAttempt(OutcomeError)
		return nil, err
	}

	// password accounts are never linked to an external identity by email alone
	if user.HasPassword() {
		s.recorder.SignInAttempt(OutcomeFailure)
		log.Warn().Str("user_id", user.ID).Str("subject", identity.Subject).Msg("External identity matches a password account; not linked")
		return nil, domain.ErrInvalidCredentials
	}

	s.recorder.SignInAttempt(OutcomeExternal)
	return s.sessions.Issue(user.Public())
}

func (s *AuthService) provision(ctx context.Context, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           email,
		NormalizedEmail: domain.NormalizeEmail(email),
		Name:            name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		// a concurrent callback created it first
		return s.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("Account provisioned from external identity")
	return user, nil
}

// Refresh re-reads the account behind a session and issues a token with its current name and email.
// It returns ErrNotFound when the account no longer exists.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*domain.SessionToken, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sessions.Issue(user.Public())
}

// SignOut revokes the session id until it would have expired
func (s *AuthService) SignOut(ctx context.Context, session *domain.Session) error {
	if s.revoker == nil || session == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// UpdateProfile changes the account's name and email
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input domain.ProfileUpdate) (*domain.PublicUser, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	if s.demo != nil {
		if s.demo.IsAccount(userID) {
			return nil, &domain.NotConfiguredError{Message: "The demo account profile is managed by server configuration."}
		}
		if s.demo.Matches(input.Email) {
			return nil, domain.ErrDuplicateEmail
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, input.Name, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	public := user.Public()
	return &public, nil
}

// ChangePassword re-verifies the current password and stores a hash of the new one
func (s *AuthService) ChangePassword(ctx context.Context, userID string, input domain.PasswordChange) error {
	if err := s.validator.Struct(input); err != nil {
		return err
	}

	if s.demo != nil && s.demo.IsAccount(userID) {
		return &domain.NotConfiguredError{Message: "The demo account password is managed by server configuration."}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !user.HasPassword() {
		return domain.NewValidationError("User account is not configured for password login")
	}
	if !security.VerifyPassword(user.PasswordHash, input.CurrentPassword) {
		return domain.NewValidationError("Current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Password updated")
	return nil
}

// User returns the current account record
func (s *AuthService) User(ctx context.Context, userID string) (*domain.User, error) {
	return s.lookup(ctx, userID)
}

func (s *AuthService) lookup(ctx context.Context, userID string) (*domain.User, error) {
	if s.demo != nil && s.demo.IsAccount(userID) {
		return s.demo.User(), nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
