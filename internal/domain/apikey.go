package domain

import (
	"time"
)

// MaxKeyLabelLength is the longest label accepted for an API key
const MaxKeyLabelLength = 80

// APIKey represents a persisted API key record.
// Key always holds the full secret; masking happens at presentation time.
type APIKey struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Key       string    `json:"key"`
	Label     string    `json:"label,omitempty"`
	ModelIDs  []string  `json:"modelIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// KeyCreate represents an API key creation request
type KeyCreate struct {
	Label    string   `json:"label"`
	ModelIDs []string `json:"modelIds"`
}

// ModelRef is the catalog metadata attached to a key for display
type ModelRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// KeyView is an API key augmented with resolved model metadata
type KeyView struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	CreatedAt time.Time  `json:"createdAt"`
	Label     string     `json:"label,omitempty"`
	Models    []ModelRef `json:"models"`
}
