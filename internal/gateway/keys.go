package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jinxlo/api-dashboard/internal/domain"
)

const (
	ConsoleTag  = "atlas-console"
	modelPrefix = "model:"
	labelPrefix = "label:"

	maxPages = 100
)

// KeyStore implements domain.KeyRepository on top of Kong key-auth credentials.
// Each user maps to a consumer whose username and custom_id are the user id.
type KeyStore struct {
	client *Client
}

// NewKeyStore creates a Kong-backed key store
func NewKeyStore(client *Client) *KeyStore {
	return &KeyStore{client: client}
}

type keyAuth struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	CreatedAt int64    `json:"created_at,omitempty"`
	Tags      []string `json:"tags"`
}

type keyAuthPage struct {
	Data []keyAuth `json:"data"`
	Next *string   `json:"next"`
}

func consumerPath(userID string) string {
	return "/consumers/" + url.PathEscape(userID)
}

// Create ensures the consumer exists and registers the key as a key-auth credential
func (s *KeyStore) Create(ctx context.Context, key *domain.APIKey) error {
	if err := s.client.ensureConsumer(ctx, key.UserID); err != nil {
		return err
	}

	path := consumerPath(key.UserID) + "/key-auth"
	payload := keyAuth{
		ID:   key.ID,
		Key:  key.Key,
		Tags: EncodeTags(key.Label, key.ModelIDs),
	}

	status, body, err := s.client.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		// consumer was removed behind our back
		s.client.consumers.Remove(key.UserID)
	}
	if !isSuccess(status) {
		return s.client.upstream(http.MethodPost, path, status, body)
	}

	var created keyAuth
	if err := json.Unmarshal(body, &created); err != nil {
		return fmt.Errorf("failed to decode key-auth credential: %v: %w", err, domain.ErrUpstream)
	}
	if created.ID != "" {
		key.ID = created.ID
	}
	if created.CreatedAt > 0 {
		key.CreatedAt = time.Unix(created.CreatedAt, 0).UTC()
	}

	return nil
}

// ListForUser returns the consumer's credentials, newest first. An unknown consumer has no keys.
func (s *KeyStore) ListForUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	keys := []domain.APIKey{}
	path := consumerPath(userID) + "/key-auth"

	for page := 0; path != "" && page < maxPages; page++ {
		status, body, err := s.client.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return keys, nil
		}
		if !isSuccess(status) {
			return nil, s.client.upstream(http.MethodGet, path, status, body)
		}

		var result keyAuthPage
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode key-auth page: %v: %w", err, domain.ErrUpstream)
		}

		for _, item := range result.Data {
			label, modelIDs := DecodeTags(item.Tags)
			keys = append(keys, domain.APIKey{
				ID:        item.ID,
				UserID:    userID,
				Key:       item.Key,
				Label:     label,
				ModelIDs:  modelIDs,
				CreatedAt: time.Unix(item.CreatedAt, 0).UTC(),
			})
		}

		path = ""
		if result.Next != nil {
			path = *result.Next
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

// DeleteForUser removes a credential scoped to the user's consumer. Missing keys are a no-op.
func (s *KeyStore) DeleteForUser(ctx context.Context, userID, keyID string) error {
	path := consumerPath(userID) + "/key-auth/" + url.PathEscape(keyID)

	status, body, err := s.client.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || isSuccess(status) {
		return nil
	}
	return s.client.upstream(http.MethodDelete, path, status, body)
}

// ensureConsumer looks the consumer up and creates it on 404.
// Concurrent calls for one user share a single round trip.
func (c *Client) ensureConsumer(ctx context.Context, userID string) error {
	if c.consumers.Contains(userID) {
		return nil
	}

	_, err, _ := c.group.Do(userID, func() (any, error) {
		path := consumerPath(userID)

		status, body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		switch {
		case isSuccess(status):
		case status == http.StatusNotFound:
			payload := map[string]string{"custom_id": userID, "username": userID}
			status, body, err = c.do(ctx, http.MethodPost, "/consumers", payload)
			if err != nil {
				return nil, err
			}
			// 409 means another instance created it first
			if !isSuccess(status) && status != http.StatusConflict {
				return nil, c.upstream(http.MethodPost, "/consumers", status, body)
			}
		default:
			return nil, c.upstream(http.MethodGet, path, status, body)
		}

		c.consumers.Add(userID, struct{}{})
		return nil, nil
	})
	return err
}

// EncodeTags stores a key's label and model scope as Kong tags
func EncodeTags(label string, modelIDs []string) []string {
	tags := make([]string, 0, len(modelIDs)+2)
	tags = append(tags, ConsoleTag)
	for _, id := range modelIDs {
		tags = append(tags, modelPrefix+id)
	}
	if label != "" {
		tags = append(tags, labelPrefix+base64.RawURLEncoding.EncodeToString([]byte(label)))
	}
	return tags
}

// DecodeTags reverses EncodeTags. Unrecognized tags are ignored.
func DecodeTags(tags []string) (string, []string) {
	var label string
	modelIDs := []string{}

	for _, tag := range tags {
		switch {
		case strings.HasPrefix(tag, modelPrefix):
			modelIDs = append(modelIDs, strings.TrimPrefix(tag, modelPrefix))
		case strings.HasPrefix(tag, labelPrefix):
			raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(tag, labelPrefix))
			if err == nil {
				label = string(raw)
			}
		}
	}

	return label, modelIDs
}
