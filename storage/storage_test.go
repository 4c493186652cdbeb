package storage

import (
	"path/filepath"
	"testing"
)

var testHashParams = Argon2idParams{
	Time:        1,
	MemoryKiB:   8 * 1024,
	Parallelism: 1,
	KeyLen:      32,
	SaltLen:     16,
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(
		Config{
			Driver:    DriverSQLite,
			DSN:       filepath.Join(t.TempDir(), "test.db"),
			UsersHash: testHashParams,
		},
	)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
