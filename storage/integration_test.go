package storage

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/danesh-portal/danesh/storage/model"
)

func integrationStorage(t *testing.T, driver DriverType, dsnEnv string) *Storage {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}
	config := Config{
		Driver:    driver,
		UsersHash: testHashParams,
	}
	if dsnEnv == "" {
		config.DataDir = t.TempDir()
	} else {
		config.DSN = os.Getenv(dsnEnv)
		if config.DSN == "" {
			t.Skipf("Skipping %s test. Set %s environment variable", driver, dsnEnv)
		}
	}
	s, err := NewStorage(config)
	if err != nil {
		t.Fatalf("Failed to create %s storage: %v", driver, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err = s.Ping(); err != nil {
		t.Fatalf("Failed to ping %s database: %v", driver, err)
	}
	return s
}

// portalRoundTrip exercises users and sessions against a live database.
// Names carry a per-run suffix so shared databases can be reused.
func portalRoundTrip(t *testing.T, s *Storage) {
	t.Helper()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	users := s.UsersStorage()

	name := "Kesht" + suffix
	u, err := users.Create(model.NewUser{Username: name, Password: "بذر-گندم"})
	if err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	t.Cleanup(func() { s.db.Unscoped().Delete(&model.User{}, u.ID) })

	got, err := users.Authenticate(name, "بذر-گندم")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("Authenticate failed: %v %+v", err, got)
	}
	if got, _ = users.Authenticate(name, "wrong"); got != nil {
		t.Error("Authenticate accepted a wrong password")
	}

	// usernames compare exactly on every driver
	if got, _ = users.Authenticate("kesht"+suffix, "بذر-گندم"); got != nil {
		t.Error("Authenticate matched a username differing in case")
	}
	var notFound model.NotFoundError
	if _, err = users.GetByUsername("KESHT" + suffix); !errors.As(err, &notFound) {
		t.Errorf("GetByUsername with different case: expected NotFoundError, got %v", err)
	}
	lower, err := users.Create(model.NewUser{Username: "kesht" + suffix, Password: "pw"})
	if err != nil {
		t.Fatalf("Create user differing only in case failed: %v", err)
	}
	t.Cleanup(func() { s.db.Unscoped().Delete(&model.User{}, lower.ID) })
	var exists model.AlreadyExistsError
	if _, err = users.Create(model.NewUser{Username: name, Password: "pw"}); !errors.As(err, &exists) {
		t.Errorf("duplicate username: expected AlreadyExistsError, got %v", err)
	}

	sessions := s.SessionStorage()
	live, stale := "live-"+suffix, "stale-"+suffix
	t.Cleanup(
		func() {
			_ = sessions.Delete(live)
			_ = sessions.Delete(stale)
		},
	)
	if err = sessions.Set(live, []byte(`{"user_id":1}`), time.Hour); err != nil {
		t.Fatalf("session Set failed: %v", err)
	}
	if err = sessions.Set(live, []byte(`{"user_id":2}`), time.Hour); err != nil {
		t.Fatalf("session overwrite failed: %v", err)
	}
	if val, err := sessions.Get(live); err != nil || string(val) != `{"user_id":2}` {
		t.Errorf("session Get returned %q, %v", val, err)
	}
	if err = sessions.Set(stale, []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err = s.db.Model(&model.SessionRecord{}).Where("id = ?", stale).
		Update("expires_at", time.Now().Add(-time.Minute).Unix()).Error; err != nil {
		t.Fatal(err)
	}
	if val, _ := sessions.Get(stale); val != nil {
		t.Error("expired session was returned")
	}
	removed, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed < 1 {
		t.Errorf("expected at least one expired session to be removed, got %d", removed)
	}
	if val, _ := sessions.Get(live); val == nil {
		t.Error("DeleteExpired removed a live session")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	portalRoundTrip(t, integrationStorage(t, DriverSQLite, ""))
}

func TestMySQLRoundTrip(t *testing.T) {
	portalRoundTrip(t, integrationStorage(t, DriverMySQL, "MYSQL_DSN"))
}

func TestPostgresRoundTrip(t *testing.T) {
	portalRoundTrip(t, integrationStorage(t, DriverPostgres, "POSTGRES_DSN"))
}
