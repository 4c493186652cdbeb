package storage

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/danesh-portal/danesh/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams

	dummyOnce   sync.Once
	dummyDigest string
}

var models = []any{
	&model.User{},
	&model.KeyValue{},
	&model.SessionRecord{},
	&model.Course{},
	&model.Workshop{},
	&model.WorkshopRegistration{},
	&model.Webinar{},
	&model.Magazine{},
	&model.Article{},
	&model.Document{},
	&model.EducationalVideo{},
	&model.MediaItem{},
	&model.Slide{},
	&model.QuickAccessItem{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err = caseSensitiveUsernames(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// caseSensitiveUsernames switches the username column to a binary collation
// on MySQL, whose default collations compare case-insensitively. SQLite and
// PostgreSQL already compare exactly.
func caseSensitiveUsernames(db *gorm.DB) error {
	if db.Dialector.Name() != string(DriverMySQL) {
		return nil
	}
	return db.Exec(
		"ALTER TABLE users MODIFY username VARCHAR(191) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
	).Error
}

// DB exposes the underlying gorm.DB
func (s *Storage) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database is reachable
func (s *Storage) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Backends groups all stores of this Storage
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Users:             s.UsersStorage(),
		KV:                s.KeyValue(),
		Registrations:     s.RegistrationsStorage(),
		Courses:           newContentStorage[model.Course](s.db, "courses", orderNewestFirst),
		Workshops:         newContentStorage[model.Workshop](s.db, "workshops", "starts_at DESC, id DESC"),
		Webinars:          newContentStorage[model.Webinar](s.db, "webinars", "starts_at DESC, id DESC"),
		Magazines:         newContentStorage[model.Magazine](s.db, "magazines", "issue_number DESC, id DESC"),
		Articles:          newContentStorage[model.Article](s.db, "articles", orderNewestFirst),
		Documents:         newContentStorage[model.Document](s.db, "documents", orderNewestFirst),
		EducationalVideos: newContentStorage[model.EducationalVideo](s.db, "educational videos", orderNewestFirst),
		Media:             newContentStorage[model.MediaItem](s.db, "media", orderNewestFirst),
		Slides:            newContentStorage[model.Slide](s.db, "slides", orderByPosition),
		QuickAccess:       newContentStorage[model.QuickAccessItem](s.db, "quick access items", orderByPosition),
	}
}

// dummyHash returns a digest used to keep the duration of a failed login
// independent of whether the username exists
func (s *Storage) dummyHash() string {
	s.dummyOnce.Do(
		func() {
			s.dummyDigest, _ = HashPassword("danesh-dummy-password", s.userParams)
		},
	)
	return s.dummyDigest
}
