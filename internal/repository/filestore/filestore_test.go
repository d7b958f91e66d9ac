package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestOpen_CreatesEmptyDocuments(t *testing.T) {
	store := openStore(t)

	raw, err := os.ReadFile(filepath.Join(store.Dir(), UsersFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[]}`, string(raw))

	raw, err = os.ReadFile(filepath.Join(store.Dir(), KeysFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"keys":[]}`, string(raw))
}

func TestOpen_KeepsExistingData(t *testing.T) {
	dir := t.TempDir()
	existing := `{"users":[{"id":"u-1","email":"Old@Example.com","name":"Old","passwordHash":"h","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte(existing), 0o600))

	store, err := Open(dir)
	require.NoError(t, err)

	// records written before normalizedEmail existed are still found
	user, err := NewUserRepository(store).FindByEmail(context.Background(), "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
}

func TestResolveDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	want := filepath.Join(base, "usable")
	got, err := ResolveDir([]string{filepath.Join(blocker, "nested"), want})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// an existing directory is accepted as-is
	got, err = ResolveDir([]string{want})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ResolveDir([]string{filepath.Join(blocker, "nested")})
	assert.Error(t, err)
}

func TestCandidates(t *testing.T) {
	t.Setenv("TMPDIR", "/var/tmp-test")

	got := Candidates("custom-data")
	require.GreaterOrEqual(t, len(got), 3)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "custom-data"), got[0])
	assert.Equal(t, filepath.Join(wd, ".data"), got[1])
	assert.Equal(t, "/var/tmp-test/atlas-demo-data", got[2])
	assert.Equal(t, "/tmp/atlas-demo-data", got[len(got)-1])
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(openStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	ada := &domain.User{ID: uuid.NewString(), Email: "Ada@Example.com", Name: "Ada", PasswordHash: "h1", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, ada))

	err := repo.Create(ctx, &domain.User{ID: uuid.NewString(), Email: " ada@example.COM ", Name: "Imposter"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	found, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, found.ID)
	assert.Equal(t, "ada@example.com", found.NormalizedEmail)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	grace := &domain.User{ID: uuid.NewString(), Email: "grace@example.com", Name: "Grace", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, grace))

	_, err = repo.UpdateProfile(ctx, grace.ID, "Grace", "ADA@example.com")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	updated, err := repo.UpdateProfile(ctx, grace.ID, "Grace Hopper", "Grace.Hopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", updated.Name)
	assert.Equal(t, "grace.hopper@example.com", updated.NormalizedEmail)

	_, err = repo.UpdateProfile(ctx, "ghost", "Ghost", "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, ada.ID, "h2"))
	found, err = repo.FindByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", found.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "h"), domain.ErrNotFound)
}

func TestAPIKeyRepository(t *testing.T) {
	store := openStore(t)
	repo := NewAPIKeyRepository(store)
	ctx := context.Background()

	keys, err := repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	base := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &domain.APIKey{ID: "k-1", UserID: "u-1", Key: "sk-first", ModelIDs: []string{"atlas-llm-pro"}, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.APIKey{ID: "k-2", UserID: "u-1", Key: "sk-second", Label: "CI", ModelIDs: []string{"atlas-vision-diffuse"}, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.APIKey{ID: "k-3", UserID: "u-2", Key: "sk-theirs", ModelIDs: []string{"atlas-llm-lite"}, CreatedAt: base}))

	keys, err = repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "k-2", keys[0].ID)
	assert.Equal(t, "CI", keys[0].Label)
	assert.Equal(t, "k-1", keys[1].ID)

	// foreign and unknown keys are left alone
	require.NoError(t, repo.DeleteForUser(ctx, "u-1", "k-3"))
	require.NoError(t, repo.DeleteForUser(ctx, "u-1", "nope"))
	theirs, err := repo.ListForUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	require.NoError(t, repo.DeleteForUser(ctx, "u-1", "k-1"))
	keys, err = repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "k-2", keys[0].ID)

	raw, err := os.ReadFile(filepath.Join(store.Dir(), KeysFile))
	require.NoError(t, err)
	var doc struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Keys, 2)
	assert.Contains(t, doc.Keys[0], "userId")
	assert.Contains(t, doc.Keys[0], "modelIds")
}

func TestAPIKeyRepository_ConcurrentCreates(t *testing.T) {
	repo := NewAPIKeyRepository(openStore(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &domain.APIKey{ID: uuid.NewString(), UserID: "u-1", Key: uuid.NewString(), ModelIDs: []string{"atlas-llm-pro"}, CreatedAt: time.Now()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	keys, err := repo.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, keys, 16)
}

func TestCanceledContext(t *testing.T) {
	repo := NewUserRepository(openStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByID(ctx, "u-1")
	assert.ErrorIs(t, err, context.Canceled)
}
