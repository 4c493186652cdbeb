package storage

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/danesh-portal/danesh/storage/model"
)

func TestUsersCreateAndAuthenticate(t *testing.T) {
	users := newTestStorage(t).UsersStorage()

	u, err := users.Create(model.NewUser{Username: "farmer1", Password: "secret123", Name: "Ali", Email: "Ali@Example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.PasswordHash != "" {
		t.Error("Create returned the password hash")
	}
	if u.Role != model.RoleUser {
		t.Errorf("expected default role user, got %s", u.Role)
	}
	if u.SubscriptionTier != model.TierFree {
		t.Errorf("expected default tier free, got %s", u.SubscriptionTier)
	}
	if u.Email == nil || *u.Email != "ali@example.com" {
		t.Errorf("expected normalized email, got %v", u.Email)
	}

	got, err := users.Authenticate("farmer1", "secret123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got == nil {
		t.Fatal("Authenticate returned nil for valid credentials")
	}
	if got.ID != u.ID || got.Username != "farmer1" || got.PasswordHash != "" {
		t.Errorf("unexpected user returned: %+v", got)
	}
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt not recorded")
	}
}

func TestUsersAuthenticateFailuresAreUniform(t *testing.T) {
	users := newTestStorage(t).UsersStorage()
	if _, err := users.Create(model.NewUser{Username: "alice", Password: "right"}); err != nil {
		t.Fatal(err)
	}
	disabled := true
	bob, err := users.Create(model.NewUser{Username: "bob", Password: "right"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = users.Update(bob.ID, model.UserUpdate{Disabled: &disabled}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "right"},
		{"wrong password", "alice", "wrong"},
		{"case differs", "Alice", "right"},
		{"disabled user", "bob", "right"},
	}
	for _, c := range cases {
		t.Run(
			c.name, func(t *testing.T) {
				u, err := users.Authenticate(c.username, c.password)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if u != nil {
					t.Fatalf("expected nil user, got %+v", u)
				}
			},
		)
	}
}

func TestUsersCreateConflicts(t *testing.T) {
	users := newTestStorage(t).UsersStorage()
	if _, err := users.Create(model.NewUser{Username: "farmer1", Password: "a", Email: "f@example.com"}); err != nil {
		t.Fatal(err)
	}

	var exists model.AlreadyExistsError
	if _, err := users.Create(model.NewUser{Username: "farmer1", Password: "b"}); !errors.As(err, &exists) {
		t.Errorf("duplicate username: expected AlreadyExistsError, got %v", err)
	}
	if _, err := users.Create(model.NewUser{Username: "farmer2", Password: "b", Email: "F@example.com"}); !errors.As(err, &exists) {
		t.Errorf("duplicate email: expected AlreadyExistsError, got %v", err)
	}
	// accounts without email must not collide on the unique index
	if _, err := users.Create(model.NewUser{Username: "x1", Password: "b"}); err != nil {
		t.Errorf("first user without email: %v", err)
	}
	if _, err := users.Create(model.NewUser{Username: "x2", Password: "b"}); err != nil {
		t.Errorf("second user without email: %v", err)
	}

	count, err := users.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 users, got %d", count)
	}
}

func TestUsersCreateValidation(t *testing.T) {
	users := newTestStorage(t).UsersStorage()
	var invalid model.ValidationError
	for _, nu := range []model.NewUser{
		{Username: "", Password: "x"},
		{Username: "   ", Password: "x"},
		{Username: "a", Password: ""},
		{Username: "a", Password: "x", Role: "root"},
	} {
		if _, err := users.Create(nu); !errors.As(err, &invalid) {
			t.Errorf("Create(%+v): expected ValidationError, got %v", nu, err)
		}
	}
}

func TestUsersUpdate(t *testing.T) {
	users := newTestStorage(t).UsersStorage()
	u, err := users.Create(model.NewUser{Username: "reza", Password: "old"})
	if err != nil {
		t.Fatal(err)
	}

	name := "Reza"
	role := model.RoleAdmin
	tier := model.TierVIP
	password := "new"
	updated, err := users.Update(
		u.ID, model.UserUpdate{Name: &name, Role: &role, SubscriptionTier: &tier, Password: &password},
	)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != name || updated.Role != role || updated.SubscriptionTier != tier {
		t.Errorf("update not applied: %+v", updated)
	}
	if got, _ := users.Authenticate("reza", "old"); got != nil {
		t.Error("old password still accepted")
	}
	if got, _ := users.Authenticate("reza", "new"); got == nil {
		t.Error("new password not accepted")
	}

	bad := model.Role("superuser")
	var invalid model.ValidationError
	if _, err = users.Update(u.ID, model.UserUpdate{Role: &bad}); !errors.As(err, &invalid) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	var notFound model.NotFoundError
	if _, err = users.Update(9999, model.UserUpdate{Name: &name}); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestUsersImportUpgradesBcrypt(t *testing.T) {
	s := newTestStorage(t)
	users := s.UsersStorage()
	digest, err := bcrypt.GenerateFromPassword([]byte("legacy"), 10)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := users.Import(model.User{Username: "old-user", PasswordHash: string(digest)})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if u, _ := users.Authenticate("old-user", "legacy"); u == nil {
		t.Fatal("imported bcrypt user could not log in")
	}
	var stored model.User
	if err = s.DB().First(&stored, imported.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Errorf("hash was not upgraded: %s", stored.PasswordHash)
	}
	if u, _ := users.Authenticate("old-user", "legacy"); u == nil {
		t.Fatal("user could not log in after hash upgrade")
	}
}

func TestUsersAuthenticateRehashesOnParamChange(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.UsersStorage().Create(model.NewUser{Username: "u", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	s.userParams.Time = 2
	if u, _ := s.UsersStorage().Authenticate("u", "pw"); u == nil {
		t.Fatal("authentication failed after param change")
	}
	var stored model.User
	if err := s.DB().Where("username = ?", "u").First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if NeedsRehash(stored.PasswordHash, s.userParams) {
		t.Error("hash was not upgraded to the new params")
	}
}
