package postgres

import (
	"context"
	"fmt"

	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/rs/zerolog/log"
)

// APIKeyRepository stores API keys with their secret sealed at rest
type APIKeyRepository struct {
	db        *DB
	encryptor *security.Encryptor
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB, encryptor *security.Encryptor) *APIKeyRepository {
	return &APIKeyRepository{db: db, encryptor: encryptor}
}

// Create inserts a new API key
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	sealed, err := r.encryptor.EncryptString(key.Key)
	if err != nil {
		return fmt.Errorf("failed to seal api key: %w", err)
	}

	var label *string
	if key.Label != "" {
		label = &key.Label
	}

	query := `
		INSERT INTO api_keys (id, user_id, key_ciphertext, key_hash, label, model_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		key.ID,
		key.UserID,
		sealed,
		security.HashKey(key.Key),
		label,
		key.ModelIDs,
		key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// ListForUser returns a user's keys, newest first
func (r *APIKeyRepository) ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	query := `
		SELECT id, user_id, key_ciphertext, label, model_ids, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.APIKey{}
	for rows.Next() {
		var (
			key    domain.APIKey
			sealed string
			label  *string
		)
		if err := rows.Scan(&key.ID, &key.UserID, &sealed, &label, &key.ModelIDs, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}

		key.Key, err = r.encryptor.DecryptString(sealed)
		if err != nil {
			// sealed under another encryption key; the rest of the listing still loads
			log.Warn().Err(err).Str("key_id", key.ID).Str("user_id", key.UserID).Msg("Skipping api key that cannot be decrypted")
			continue
		}
		if label != nil {
			key.Label = *label
		}
		if key.ModelIDs == nil {
			key.ModelIDs = []string{}
		}

		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return keys, nil
}

// DeleteForUser removes a key if it belongs to the user
func (r *APIKeyRepository) DeleteForUser(ctx context.Context, userID, keyID string) error {
	query := `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`

	if _, err := r.db.Pool.Exec(ctx, query, keyID, userID); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}

	return nil
}
