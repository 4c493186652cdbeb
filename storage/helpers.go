package storage

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"tideland.dev/go/slices"

	"github.com/danesh-portal/danesh/storage/model"
)

// StaticPageKeys lists the keys of the editable static pages
var StaticPageKeys = []string{
	model.KeyValueKeyAboutUs,
	model.KeyValueKeyContactUs,
}

// GetStaticPage returns the static page stored under key. A page that was
// never saved is returned empty.
func GetStaticPage(kvStorage model.KeyValueStore, key string) (*model.StaticPage, error) {
	if !slices.IsMember(key, StaticPageKeys) {
		return nil, model.NotFoundErrorFmt("unknown page: %s", key)
	}
	page := &model.StaticPage{}
	if kvStorage == nil {
		return page, nil
	}
	if _, err := kvStorage.GetAs(model.KeyValueScopeStaticPages, key, page); err != nil {
		return nil, err
	}
	return page, nil
}

// SetStaticPage stores the static page under key
func SetStaticPage(kvStorage model.KeyValueStore, key string, page model.StaticPage) error {
	if kvStorage == nil {
		return errors.New("key value store is not set")
	}
	if !slices.IsMember(key, StaticPageKeys) {
		return model.NotFoundErrorFmt("unknown page: %s", key)
	}
	return kvStorage.SetAny(model.KeyValueScopeStaticPages, key, page)
}

// BootstrapAdmin describes the administrator account that is seeded on
// first start
type BootstrapAdmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
}

// EnsureBootstrapAdmin creates the configured admin account if no admin exists
// yet. Calling it again is a no-op and returns a nil user. If no password is
// configured a random one is generated and returned, so it can be shown once.
func EnsureBootstrapAdmin(
	users model.UsersStore, kvStorage model.KeyValueStore, conf BootstrapAdmin,
) (*model.User, string, error) {
	if conf.Username == "" {
		conf.Username = "admin"
	}
	admins, err := users.CountByRole(model.RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	if admins > 0 {
		return nil, "", nil
	}
	if _, err = users.GetByUsername(conf.Username); err == nil {
		return nil, "", errors.Errorf(
			"cannot seed admin: username '%s' is taken by a non-admin account", conf.Username,
		)
	}
	var generated string
	password := conf.Password
	if password == "" {
		if generated, err = randomPassword(); err != nil {
			return nil, "", err
		}
		password = generated
	}
	u, err := users.Create(
		model.NewUser{
			Username: conf.Username,
			Password: password,
			Name:     conf.Name,
			Email:    conf.Email,
			Role:     model.RoleAdmin,
		},
	)
	if err != nil {
		return nil, "", errors.Wrap(err, "could not seed admin")
	}
	if kvStorage != nil {
		if err = kvStorage.SetAny(
			model.KeyValueScopeBootstrap, model.KeyValueKeySeededAt, time.Now().UTC(),
		); err != nil {
			return nil, "", err
		}
	}
	return u, generated, nil
}

func randomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", errors.WithStack(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
