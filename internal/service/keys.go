package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jinxlo/api-dashboard/internal/catalog"
	"github.com/jinxlo/api-dashboard/internal/domain"
	"github.com/jinxlo/api-dashboard/internal/security"
	"github.com/rs/zerolog/log"
)

// KeyService manages the API key lifecycle for signed-in users
type KeyService struct {
	keys     domain.KeyRepository
	recorder Recorder
	now      func() time.Time
}

// NewKeyService creates a new key service
func NewKeyService(keys domain.KeyRepository, recorder Recorder) *KeyService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &KeyService{
		keys:     keys,
		recorder: recorder,
		now:      time.Now,
	}
}

// List returns the user's keys with their scoped models resolved, newest first
func (s *KeyService) List(ctx context.Context, userID string) ([]domain.KeyView, error) {
	records, err := s.keys.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	views := make([]domain.KeyView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}
	return views, nil
}

// Create issues a new key scoped to the requested models. The secret is returned in full only here.
func (s *KeyService) Create(ctx context.Context, userID string, input domain.KeyCreate) (*domain.KeyView, error) {
	label := strings.TrimSpace(input.Label)
	if utf8.RuneCountInString(label) > domain.MaxKeyLabelLength {
		return nil, domain.NewValidationError(fmt.Sprintf("Label must be at most %d characters", domain.MaxKeyLabelLength))
	}

	modelIDs, err := normalizeModelIDs(input.ModelIDs)
	if err != nil {
		return nil, err
	}

	secret, err := security.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	record := &domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       secret,
		Label:     label,
		ModelIDs:  modelIDs,
		CreatedAt: s.now().UTC(),
	}

	if err := s.keys.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create key: %w", err)
	}

	s.recorder.KeyCreated()
	log.Info().Str("user_id", userID).Str("key_id", record.ID).Strs("models", modelIDs).Msg("API key created")

	view := toView(*record)
	return &view, nil
}

// Delete revokes a key. Unknown and foreign keys are ignored.
func (s *KeyService) Delete(ctx context.Context, userID, keyID string) error {
	if strings.TrimSpace(keyID) == "" {
		return domain.NewValidationError("Key id is required")
	}

	if err := s.keys.DeleteForUser(ctx, userID, keyID); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	s.recorder.KeyRevoked()
	log.Info().Str("user_id", userID).Str("key_id", keyID).Msg("API key revoked")
	return nil
}

// normalizeModelIDs trims, checks against the catalog and removes duplicates keeping first occurrences
func normalizeModelIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := catalog.ByID(id); !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("Unknown model: %s", id))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if len(out) == 0 {
		return nil, domain.NewValidationError("Select at least one model")
	}
	return out, nil
}

func toView(record domain.APIKey) domain.KeyView {
	return domain.KeyView{
		ID:        record.ID,
		Key:       record.Key,
		CreatedAt: record.CreatedAt,
		Label:     record.Label,
		Models:    catalog.Resolve(record.ModelIDs),
	}
}
