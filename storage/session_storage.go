package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danesh-portal/danesh/storage/model"
)

// SessionStorage keeps the records of the fiber session middleware in the
// database. It satisfies fiber.Storage.
type SessionStorage struct {
	db *gorm.DB
}

// SessionStorage returns a SessionStorage
func (s *Storage) SessionStorage() *SessionStorage {
	return &SessionStorage{db: s.db}
}

// Get returns the stored value, or nil if the key does not exist or expired
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var rec model.SessionRecord
	err := s.db.Where("id = ?", key).Limit(1).Find(&rec).Error
	if err != nil {
		return nil, errors.Wrap(err, "sessions: get failed")
	}
	if rec.ID == "" {
		return nil, nil
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt <= time.Now().Unix() {
		return nil, nil
	}
	return rec.Data, nil
}

// Set stores val under key; exp of 0 means no expiry
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	rec := model.SessionRecord{
		ID:   key,
		Data: val,
	}
	if exp > 0 {
		rec.ExpiresAt = time.Now().Add(exp).Unix()
	}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
		},
	).Create(&rec).Error
	return errors.Wrap(err, "sessions: set failed")
}

// Delete removes key; a missing key is not an error
func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	err := s.db.Where("id = ?", key).Delete(&model.SessionRecord{}).Error
	return errors.Wrap(err, "sessions: delete failed")
}

// Reset removes all sessions
func (s *SessionStorage) Reset() error {
	err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.SessionRecord{}).Error
	return errors.Wrap(err, "sessions: reset failed")
}

// Close is a no-op; the connection is owned by Storage
func (*SessionStorage) Close() error {
	return nil
}

// DeleteExpired removes all expired sessions and returns how many were removed
func (s *SessionStorage) DeleteExpired() (int64, error) {
	res := s.db.Where("expires_at <> 0 AND expires_at <= ?", time.Now().Unix()).Delete(&model.SessionRecord{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sessions: cleanup failed")
	}
	return res.RowsAffected, nil
}
