// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters, following OWASP recommendations.
const (
	hashIterations  = 1
	hashMemoryKiB   = 64 * 1024 // 64 MB
	hashParallelism = 4
	saltLength      = 16 // bytes
	keyLength       = 32 // bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher derives and verifies password hashes.
type PasswordHasher interface {
	// Hash generates a fresh salt and derives a hash of the password.
	// The returned string embeds the salt and derivation parameters, so it
	// is self-contained for later verification.
	Hash(password string) (string, error)

	// Verify recomputes the hash of password using the salt and parameters
	// embedded in encoded and compares the two in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// when encoded is not a valid hash string.
	Verify(password, encoded string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id, encoded in PHC
// string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// hashParams are the derivation parameters carried inside an encoded hash.
type hashParams struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
}

// Hash derives an argon2id hash of password under a fresh random salt.
// Two calls with the same password yield different encodings because the
// salt is never reused.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt, err := newSalt()
	if err != nil {
		return "", err
	}

	params := hashParams{
		memoryKiB:   hashMemoryKiB,
		iterations:  hashIterations,
		parallelism: hashParallelism,
	}
	key := deriveKey(password, salt, params)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.memoryKiB,
		params.iterations,
		params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify recomputes the key for password with the salt and parameters from
// encoded and compares in constant time. The comparison cost does not depend
// on where a mismatch occurs.
func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	salt, expected, params, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password), salt,
		params.iterations, params.memoryKiB, params.parallelism,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// newSalt produces a fresh unpredictable salt, independent across calls.
func newSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return salt, nil
}

// deriveKey is the deterministic derivation step: same password, salt, and
// parameters always yield the same key.
func deriveKey(password string, salt []byte, p hashParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.iterations, p.memoryKiB, p.parallelism, keyLength)
}

// decodeHash parses a PHC-format argon2id string into its salt, key, and
// derivation parameters.
func decodeHash(encoded string) (salt, key []byte, params hashParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, scanErr := fmt.Sscanf(parts[2], "v=%d", &version); scanErr != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Wrap(scanErr)
	}

	var memory, iterations, parallelism uint32
	if _, scanErr := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); scanErr != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Wrap(scanErr)
	}
	if parallelism > 255 {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Errorf("parallelism value %d exceeds uint8 max", parallelism)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<30 {
		return nil, nil, params, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	params = hashParams{
		memoryKiB:   memory,
		iterations:  iterations,
		parallelism: uint8(parallelism),
	}
	return salt, key, params, nil
}
