package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	KeyValueScopeGlobal      = ""
	KeyValueScopeStaticPages = "static_pages"
	KeyValueScopeBootstrap   = "bootstrap"

	KeyValueKeyAboutUs   = "about-us"
	KeyValueKeyContactUs = "contact-us"
	KeyValueKeySeededAt  = "admin_seeded_at"
)

// KeyValue stores arbitrary key-value data.
//
// Values are serialized using GORM's json serializer, which leverages the
// database JSON type when available (e.g., PostgreSQL, MySQL), and falls back
// to TEXT in others (e.g., SQLite). The `Scope` field enables namespacing to
// avoid key collisions across different features.
type KeyValue struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Scope allows grouping keys by namespace; empty string is global scope.
	Scope string `gorm:"primaryKey;size:64" json:"scope"`

	// Key is the identifier within a scope.
	Key string `gorm:"primaryKey;size:128" json:"key"`

	// Value is stored as native JSON/JSONB (where supported) using datatypes.JSON.
	Value datatypes.JSON `json:"value"`
}

// KeyValueAccessor defines common operations for key-value storage.
type KeyValueAccessor interface {
	// Get retrieves the value for a (scope, key). Returns (nil, nil) if not found.
	Get(scope, key string) (datatypes.JSON, error)

	// Set stores/replaces the value for a (scope, key).
	Set(scope, key string, value datatypes.JSON) error

	// Delete removes the entry for a (scope, key). No error if missing.
	Delete(scope, key string) error
}

// KeyValueStore extends KeyValueAccessor with typed helpers
type KeyValueStore interface {
	KeyValueAccessor
	// GetAs unmarshals the value into out; returns (false, nil) if not found
	GetAs(scope, key string, out any) (bool, error)
	// SetAny marshals v to JSON and stores it
	SetAny(scope, key string, v any) error
}

// StaticPage is the editable content of the "about us" and "contact us"
// pages. Contact fields are empty for the about page.
type StaticPage struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	ImageURL string            `json:"image_url,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Email    string            `json:"email,omitempty"`
	Address  string            `json:"address,omitempty"`
	MapURL   string            `json:"map_url,omitempty"`
	Social   map[string]string `json:"social,omitempty"`
}
