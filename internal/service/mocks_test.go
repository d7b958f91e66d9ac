package service

import (
	"context"
	"sync"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	args := m.Called(ctx, id, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockKeyRepository mocks the KeyRepository interface
type MockKeyRepository struct {
	mock.Mock
}

func (m *MockKeyRepository) ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKeyRepository) DeleteForUser(ctx context.Context, userID, keyID string) error {
	args := m.Called(ctx, userID, keyID)
	return args.Error(0)
}

// MockRevoker mocks the Revoker interface
type MockRevoker struct {
	mock.Mock
}

func (m *MockRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	args := m.Called(ctx, tokenID, until)
	return args.Error(0)
}

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
	name       string
	configured bool
}

func (m *MockProvider) Name() string         { return m.name }
func (m *MockProvider) DefaultModel() string { return "atlas-llm-pro" }
func (m *MockProvider) IsConfigured() bool   { return m.configured }

func (m *MockProvider) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// countingRecorder tallies recorded events
type countingRecorder struct {
	mu      sync.Mutex
	signIns map[string]int
	created int
	revoked int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{signIns: map[string]int{}}
}

func (r *countingRecorder) SignInAttempt(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signIns[outcome]++
}

func (r *countingRecorder) KeyCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *countingRecorder) KeyRevoked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked++
}
