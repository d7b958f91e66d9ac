package filestore

import (
	"context"
	"sort"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

// APIKeyRepository implements domain.KeyRepository over demo-keys.json.
// Secrets are stored in plaintext; this backend is for demos only.
type APIKeyRepository struct {
	doc *document
}

// NewAPIKeyRepository creates a new file-backed API key repository
func NewAPIKeyRepository(store *Store) *APIKeyRepository {
	return &APIKeyRepository{doc: store.keys}
}

func (r *APIKeyRepository) load() ([]domain.APIKey, error) {
	var doc keysDoc
	if err := r.doc.read(&doc); err != nil {
		return nil, err
	}
	return doc.Keys, nil
}

func (r *APIKeyRepository) save(keys []domain.APIKey) error {
	if keys == nil {
		keys = []domain.APIKey{}
	}
	return r.doc.write(keysDoc{Keys: keys})
}

// Create appends a new API key
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	keys, err := r.load()
	if err != nil {
		return err
	}

	record := *key
	record.ModelIDs = append([]string{}, key.ModelIDs...)
	return r.save(append(keys, record))
}

// ListForUser returns a user's keys, newest first
func (r *APIKeyRepository) ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.doc.mu.Lock()
	keys, err := r.load()
	r.doc.mu.Unlock()
	if err != nil {
		return nil, err
	}

	owned := []domain.APIKey{}
	for _, k := range keys {
		if k.UserID != userID {
			continue
		}
		if k.ModelIDs == nil {
			k.ModelIDs = []string{}
		}
		owned = append(owned, k)
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned, nil
}

// DeleteForUser removes a key if it belongs to the user
func (r *APIKeyRepository) DeleteForUser(ctx context.Context, userID, keyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	keys, err := r.load()
	if err != nil {
		return err
	}

	kept := keys[:0]
	removed := false
	for _, k := range keys {
		if k.ID == keyID && k.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, k)
	}
	if !removed {
		return nil
	}
	return r.save(kept)
}
