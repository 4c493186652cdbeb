package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a PHC-formatted argon2id hash string.
// Format: $argon2id$v=19$m=65536,t=1,p=4$<saltB64>$<hashB64>
func HashPassword(password string, p Argon2idParams) (string, error) {
	if p.Time == 0 {
		p = defaultArgon2idParams()
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to read salt")
	}
	dk := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(dk)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", p.MemoryKiB, p.Time, p.Parallelism, saltB64, hashB64), nil
}

// VerifyPassword reports whether password matches the digest. Argon2id and
// bcrypt digests are understood; anything else, including malformed digests,
// fails closed.
func VerifyPassword(digest, password string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}
	params, salt, hash, err := parseArgon2id(digest)
	if err != nil || len(hash) == 0 {
		return false
	}
	dk := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(dk, hash) == 1
}

// NeedsRehash reports whether a digest should be replaced by a fresh argon2id
// hash with the passed parameters, i.e. if it is a bcrypt digest or uses
// different parameters.
func NeedsRehash(digest string, p Argon2idParams) bool {
	if p.Time == 0 {
		p = defaultArgon2idParams()
	}
	stored, err := extractArgon2idParams(digest)
	if err != nil {
		return true
	}
	return !argon2idParamsEqual(stored, p)
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}

// extractArgon2idParams parses a PHC-formatted argon2id string and returns parameters
func extractArgon2idParams(encoded string) (Argon2idParams, error) {
	p, _, _, err := parseArgon2id(encoded)
	return p, err
}

// parseArgon2id parses a PHC-formatted argon2id hash and returns parameters, salt and hash bytes.
func parseArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var out Argon2idParams
	if !strings.HasPrefix(encoded, "$argon2id$") {
		return out, nil, nil, errors.Errorf("unsupported password hash format")
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return out, nil, nil, errors.Errorf("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return out, nil, nil, errors.Errorf("unsupported argon2 version")
	}
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return out, nil, nil, errors.Errorf("invalid argon2id parameter '%s'", kv)
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.MemoryKiB = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.Time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil {
				return out, nil, nil, err
			}
			out.Parallelism = uint8(n)
		}
	}
	if out.Time == 0 || out.MemoryKiB == 0 || out.Parallelism == 0 {
		return out, nil, nil, errors.Errorf("invalid argon2id parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, nil, nil, err
	}
	out.SaltLen = uint32(len(salt))
	out.KeyLen = uint32(len(hash))
	return out, salt, hash, nil
}

func argon2idParamsEqual(a, b Argon2idParams) bool {
	return a.Time == b.Time && a.MemoryKiB == b.MemoryKiB && a.Parallelism == b.Parallelism && a.KeyLen == b.KeyLen && a.SaltLen == b.SaltLen
}

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{Time: 1, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32, SaltLen: 16}
}
