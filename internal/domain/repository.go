package domain

import "context"

// UserRepository defines the interface for credential storage
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, id, name, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// KeyRepository defines the interface for API key storage.
// DeleteForUser must treat missing or foreign-owned keys as a no-op.
type KeyRepository interface {
	ListForUser(ctx context.Context, userID string) ([]APIKey, error)
	Create(ctx context.Context, key *APIKey) error
	DeleteForUser(ctx context.Context, userID, keyID string) error
}
