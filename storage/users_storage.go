package storage

import (
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/danesh-portal/danesh/storage/model"
)

// UsersStorage returns a UsersStorage
func (s *Storage) UsersStorage() *UsersStorage {
	return &UsersStorage{db: s.db, params: s.userParams, dummyHash: s.dummyHash}
}

// UsersStorage implements UsersStore using GORM
type UsersStorage struct {
	db        *gorm.DB
	params    Argon2idParams
	dummyHash func() string
}

// Count returns the number of users present in the store
func (s *UsersStorage) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "users: count failed")
	}
	return count, nil
}

// CountByRole returns the number of users with the passed role
func (s *UsersStorage) CountByRole(role model.Role) (int64, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "users: count failed")
	}
	return count, nil
}

// List returns all users (without password hashes)
func (s *UsersStorage) List() ([]model.User, error) {
	var users []model.User
	if err := s.db.Model(&model.User{}).Order("id").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "users: list failed")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Get returns a user by id
func (s *UsersStorage) Get(id uint) (*model.User, error) {
	var u model.User
	if err := s.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %d", id)
		}
		return nil, errors.Wrap(err, "users: get failed")
	}
	u.PasswordHash = ""
	return &u, nil
}

// GetByUsername returns a user by username
func (s *UsersStorage) GetByUsername(username string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("user not found: %s", username)
		}
		return nil, errors.Wrap(err, "users: get failed")
	}
	u.PasswordHash = ""
	return &u, nil
}

// Create creates a user with an Argon2id-hashed password. The unique indexes
// on username and email are authoritative; the lookup beforehand only exists
// to give a clean error in the common case.
func (s *UsersStorage) Create(nu model.NewUser) (*model.User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	if nu.Username == "" || nu.Password == "" {
		return nil, model.ValidationError("username and password are required")
	}
	if nu.Role == "" {
		nu.Role = model.RoleUser
	}
	if !nu.Role.Valid() {
		return nil, model.ValidationError("invalid role")
	}
	email := normalizeEmail(nu.Email)

	taken := s.db.Model(&model.User{}).Where("username = ?", nu.Username)
	if email != nil {
		taken = taken.Or("email = ?", *email)
	}
	var existing int64
	if err := taken.Count(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "users: create failed")
	}
	if existing > 0 {
		return nil, model.AlreadyExistsErrorFmt("user already exists: %s", nu.Username)
	}
	hash, err := HashPassword(nu.Password, s.params)
	if err != nil {
		return nil, err
	}
	u := model.User{
		Username:         nu.Username,
		PasswordHash:     hash,
		Name:             strings.TrimSpace(nu.Name),
		Email:            email,
		Role:             nu.Role,
		SubscriptionTier: model.TierFree,
	}
	if err = s.db.Create(&u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", nu.Username)
		}
		return nil, errors.Wrap(err, "users: create failed")
	}
	u.PasswordHash = ""
	return &u, nil
}

// Import stores a user with an already computed password hash, e.g. a bcrypt
// hash from a legacy export. The hash is upgraded on the first successful
// login.
func (s *UsersStorage) Import(u model.User) (*model.User, error) {
	u.ID = 0
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || u.PasswordHash == "" {
		return nil, model.ValidationError("username and password hash are required")
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = model.TierFree
	}
	if !u.Role.Valid() || !u.SubscriptionTier.Valid() {
		return nil, model.ValidationError("invalid role or subscription tier")
	}
	if u.Email != nil {
		u.Email = normalizeEmail(*u.Email)
	}
	if err := s.db.Create(&u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", u.Username)
		}
		return nil, errors.Wrap(err, "users: import failed")
	}
	u.PasswordHash = ""
	return &u, nil
}

// Update applies the non-nil fields of up
func (s *UsersStorage) Update(id uint, up model.UserUpdate) (*model.User, error) {
	if up.Role != nil && !up.Role.Valid() {
		return nil, model.ValidationError("invalid role")
	}
	if up.SubscriptionTier != nil && !up.SubscriptionTier.Valid() {
		return nil, model.ValidationError("invalid subscription tier")
	}
	updates := structs.Map(up)
	if up.Email != nil {
		updates["email"] = normalizeEmail(*up.Email)
	}
	if up.Password != nil {
		if *up.Password == "" {
			return nil, model.ValidationError("password cannot be empty")
		}
		hash, err := HashPassword(*up.Password, s.params)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	var u model.User
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := tx.First(&u, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("user not found: %d", id)
				}
				return err
			}
			if len(updates) == 0 {
				return nil
			}
			if err := tx.Model(&u).Updates(updates).Error; err != nil {
				if isUniqueConstraintError(err) {
					return model.AlreadyExistsError("email already in use")
				}
				return err
			}
			return tx.First(&u, id).Error
		},
	)
	if err != nil {
		var notFound model.NotFoundError
		var exists model.AlreadyExistsError
		if errors.As(err, &notFound) || errors.As(err, &exists) {
			return nil, err
		}
		return nil, errors.Wrap(err, "users: update failed")
	}
	u.PasswordHash = ""
	return &u, nil
}

// Authenticate validates username/password and auto-upgrades the hash if it
// is a legacy bcrypt hash or the argon2id params changed. Unknown users,
// wrong passwords and disabled users all yield (nil, nil).
func (s *UsersStorage) Authenticate(username, password string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.dummyHash != nil {
				_ = VerifyPassword(s.dummyHash(), password)
			}
			return nil, nil
		}
		return nil, errors.Wrap(err, "users: lookup failed")
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return nil, nil
	}
	if u.Disabled {
		return nil, nil
	}
	now := time.Now()
	updates := map[string]any{"last_login_at": now}
	if NeedsRehash(u.PasswordHash, s.params) {
		if newHash, err := HashPassword(password, s.params); err == nil {
			updates["password_hash"] = newHash
		}
	}
	if err := s.db.Model(&model.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		log.WithError(err).WithField("user_id", u.ID).Warn("could not record login")
	} else {
		u.LastLoginAt = &now
	}
	u.PasswordHash = ""
	return &u, nil
}

func normalizeEmail(email string) *string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	return &email
}
