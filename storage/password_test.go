package storage

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	for _, pw := range []string{"secret123", "گذرواژه‌ی-فارسی", " spaces "} {
		digest, err := HashPassword(pw, testHashParams)
		if err != nil {
			t.Fatalf("HashPassword(%q) failed: %v", pw, err)
		}
		if strings.Contains(digest, pw) {
			t.Fatalf("digest contains the plaintext")
		}
		if !VerifyPassword(digest, pw) {
			t.Errorf("VerifyPassword rejected the correct password %q", pw)
		}
		if VerifyPassword(digest, pw+"x") {
			t.Errorf("VerifyPassword accepted a wrong password for %q", pw)
		}
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("same", testHashParams)
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same", testHashParams)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	for _, digest := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=abc,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAA",
		"$2a$10$tooShort",
	} {
		if VerifyPassword(digest, "anything") {
			t.Errorf("VerifyPassword accepted malformed digest %q", digest)
		}
	}
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	digest, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(string(digest), "legacy-pass") {
		t.Error("bcrypt digest not verified")
	}
	if VerifyPassword(string(digest), "other") {
		t.Error("bcrypt digest accepted wrong password")
	}
	if !NeedsRehash(string(digest), testHashParams) {
		t.Error("bcrypt digest should need a rehash")
	}
}

func TestNeedsRehash(t *testing.T) {
	digest, err := HashPassword("pw", testHashParams)
	if err != nil {
		t.Fatal(err)
	}
	if NeedsRehash(digest, testHashParams) {
		t.Error("digest with current params should not need a rehash")
	}
	changed := testHashParams
	changed.Time = 2
	if !NeedsRehash(digest, changed) {
		t.Error("digest with old params should need a rehash")
	}
}
