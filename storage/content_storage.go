package storage

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/danesh-portal/danesh/storage/model"
)

const (
	orderNewestFirst = "created_at DESC, id DESC"
	orderByPosition  = "position ASC, id ASC"
)

type contentPtr[T any] interface {
	*T
	model.Content
}

// ContentStorage provides CRUD access to one content resource. It implements
// model.ContentStore.
type ContentStorage[T any, PT contentPtr[T]] struct {
	db    *gorm.DB
	name  string
	order string
}

func newContentStorage[T any, PT contentPtr[T]](db *gorm.DB, name, order string) *ContentStorage[T, PT] {
	return &ContentStorage[T, PT]{
		db:    db,
		name:  name,
		order: order,
	}
}

func (s *ContentStorage[T, PT]) filter(q model.ContentQuery) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if len(q.Statuses) > 0 {
			tx = tx.Where("status IN ?", q.Statuses)
		}
		if len(q.Tiers) > 0 {
			if _, gated := any(PT(new(T))).(model.TierGated); gated {
				tx = tx.Where("required_tier IN ?", q.Tiers)
			}
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			tx = tx.Where("title LIKE ?", "%"+search+"%")
		}
		return tx
	}
}

// List returns the matching items and their total count
func (s *ContentStorage[T, PT]) List(q model.ContentQuery) ([]T, int64, error) {
	var total int64
	if err := s.db.Model(new(T)).Scopes(s.filter(q)).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "%s: count failed", s.name)
	}
	tx := s.db.Scopes(s.filter(q)).Order(s.order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	items := make([]T, 0)
	if err := tx.Find(&items).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "%s: list failed", s.name)
	}
	return items, total, nil
}

// Get returns the item with the passed id
func (s *ContentStorage[T, PT]) Get(id uint) (*T, error) {
	item := new(T)
	if err := s.db.First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("%s: item %d not found", s.name, id)
		}
		return nil, errors.Wrapf(err, "%s: get failed", s.name)
	}
	return item, nil
}

// Create validates and inserts a new item
func (s *ContentStorage[T, PT]) Create(item *T) error {
	p := PT(item)
	if err := p.Validate(); err != nil {
		return err
	}
	p.Base().ID = 0
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := s.releaseSlug(tx, p); err != nil {
				return err
			}
			return tx.Create(item).Error
		},
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("%s: item already exists", s.name)
		}
		return errors.Wrapf(err, "%s: create failed", s.name)
	}
	return nil
}

// Update replaces the editable columns of the item with the passed id
func (s *ContentStorage[T, PT]) Update(id uint, item *T) (*T, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	p := PT(item)
	if err = p.Validate(); err != nil {
		return nil, err
	}
	base := p.Base()
	base.ID = id
	base.CreatedAt = PT(existing).Base().CreatedAt
	err = s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := s.releaseSlug(tx, p); err != nil {
				return err
			}
			return tx.Save(item).Error
		},
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("%s: item already exists", s.name)
		}
		return nil, errors.Wrapf(err, "%s: update failed", s.name)
	}
	return item, nil
}

// releaseSlug purges soft-deleted rows still holding the slug of p, so a
// deleted item's slug can be used again.
func (s *ContentStorage[T, PT]) releaseSlug(tx *gorm.DB, p PT) error {
	slugged, ok := any(p).(model.Slugged)
	if !ok {
		return nil
	}
	return tx.Unscoped().
		Where("slug = ? AND deleted_at IS NOT NULL", slugged.SlugKey()).
		Delete(new(T)).Error
}

// Delete soft-deletes the item with the passed id
func (s *ContentStorage[T, PT]) Delete(id uint) error {
	res := s.db.Delete(new(T), id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "%s: delete failed", s.name)
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("%s: item %d not found", s.name, id)
	}
	return nil
}

// isUniqueConstraintError performs a cheap check across supported drivers.
func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return containsAny(
		err.Error(),
		// SQLite
		"UNIQUE constraint failed",
		// MySQL
		"Duplicate entry", "Error 1062",
		// Postgres
		"duplicate key value", "violates unique constraint",
	)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
