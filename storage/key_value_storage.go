package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danesh-portal/danesh/storage/model"
)

// KeyValueStorage implements model.KeyValueStore using GORM.
type KeyValueStorage struct {
	db *gorm.DB
}

// KeyValue provides an accessor for scoped key-value storage.
func (s *Storage) KeyValue() *KeyValueStorage {
	return &KeyValueStorage{db: s.db}
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (s *KeyValueStorage) Get(scope, key string) (datatypes.JSON, error) {
	// Scan raw bytes so scalar JSON values survive on every driver
	var raw []byte
	row := s.db.Model(&model.KeyValue{}).
		Select("value").
		Where(map[string]any{"scope": scope, "key": key}).
		Row()
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "kv: get %s/%s failed", scope, key)
	}
	if raw == nil {
		return nil, nil
	}
	return raw, nil
}

// Set upserts the JSON value for a (scope, key).
func (s *KeyValueStorage) Set(scope, key string, value datatypes.JSON) error {
	kv := model.KeyValue{
		Scope: scope,
		Key:   key,
		Value: value,
	}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "scope"},
				{Name: "key"},
			},
			DoUpdates: clause.Assignments(
				map[string]any{
					"value":      value,
					"deleted_at": nil,
				},
			),
		},
	).Create(&kv).Error
	return errors.Wrapf(err, "kv: set %s/%s failed", scope, key)
}

// Delete removes a (scope, key) pair. No error if it's missing.
func (s *KeyValueStorage) Delete(scope, key string) error {
	err := s.db.Unscoped().
		Where(map[string]any{"scope": scope, "key": key}).
		Delete(&model.KeyValue{}).Error
	return errors.Wrapf(err, "kv: delete %s/%s failed", scope, key)
}

// GetAs retrieves and unmarshals the value for (scope, key) into out.
// out must be a pointer to the target type. Returns (false, nil) if not found.
func (s *KeyValueStorage) GetAs(scope, key string, out any) (bool, error) {
	raw, err := s.Get(scope, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return false, errors.Wrapf(err, "kv: decode %s/%s failed", scope, key)
	}
	return true, nil
}

// SetAny marshals v to JSON and stores it at (scope, key).
func (s *KeyValueStorage) SetAny(scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.Set(scope, key, datatypes.JSON(b))
}
