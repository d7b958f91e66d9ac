package filestore

import (
	"context"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

// UserRepository implements domain.UserRepository over demo-users.json
type UserRepository struct {
	doc *document
	now func() time.Time
}

// NewUserRepository creates a new file-backed user repository
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{doc: store.users, now: time.Now}
}

func (r *UserRepository) load() ([]domain.User, error) {
	var doc usersDoc
	if err := r.doc.read(&doc); err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if doc.Users[i].NormalizedEmail == "" {
			doc.Users[i].NormalizedEmail = domain.NormalizeEmail(doc.Users[i].Email)
		}
	}
	return doc.Users, nil
}

func (r *UserRepository) save(users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	return r.doc.write(usersDoc{Users: users})
}

// Create appends a user, rejecting a normalized email that is already taken
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	normalized := domain.NormalizeEmail(user.Email)
	for _, u := range users {
		if u.NormalizedEmail == normalized {
			return domain.ErrDuplicateEmail
		}
	}

	record := *user
	record.NormalizedEmail = normalized
	return r.save(append(users, record))
}

// FindByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeEmail(email)
	for i := range users {
		if users[i].NormalizedEmail == normalized {
			return &users[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// UpdateProfile changes a user's name and email
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeEmail(email)
	idx := -1
	for i := range users {
		switch {
		case users[i].ID == id:
			idx = i
		case users[i].NormalizedEmail == normalized:
			return nil, domain.ErrDuplicateEmail
		}
	}
	if idx < 0 {
		return nil, domain.ErrNotFound
	}

	users[idx].Name = name
	users[idx].Email = email
	users[idx].NormalizedEmail = normalized
	users[idx].UpdatedAt = r.now().UTC()

	if err := r.save(users); err != nil {
		return nil, err
	}

	updated := users[idx]
	return &updated, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}

	for i := range users {
		if users[i].ID == id {
			users[i].PasswordHash = passwordHash
			users[i].UpdatedAt = r.now().UTC()
			return r.save(users)
		}
	}
	return domain.ErrNotFound
}
