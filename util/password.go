package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	jwtSecretValue = getEnv("JWTSECRET", "")
	jwtSecret      = jwtSecretValue
	jwtSecretByte  = []byte(jwtSecretValue)
	jwtMutex       sync.RWMutex
)

// argon2id parameters; encoded into the hash string so they can evolve.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// SetJWTSecret allows tests or runtime code to update the JWT secret used
// for token signing. This function is thread-safe and can be called
// concurrently. Tests using this should avoid parallel execution if they
// need deterministic secret values.
func SetJWTSecret(secret string) {
	jwtMutex.Lock()
	defer jwtMutex.Unlock()
	jwtSecret = secret
	jwtSecretByte = []byte(secret)
}

// GetJWTSecretByte returns a copy of the current JWT secret bytes in a thread-safe manner.
func GetJWTSecretByte() []byte {
	jwtMutex.RLock()
	defer jwtMutex.RUnlock()
	// Return a copy to prevent external modifications using idiomatic Go pattern
	return append([]byte(nil), jwtSecretByte...)
}

// GenerateSalt returns a random base64-encoded 16-byte salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

// HashPasswordArgon2 hashes a plaintext password with argon2id and the given salt.
// The result embeds the parameters: argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPasswordArgon2(password, salt string) (string, error) {
	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, argonKeyLen)
	encoded := fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		salt, base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// VerifyPassword checks a plaintext password against a stored argon2id hash.
func VerifyPassword(password, stored, salt string) (bool, error) {
	if !strings.HasPrefix(stored, "argon2id$") {
		return false, fmt.Errorf("unsupported password hash format")
	}
	computed, err := HashPasswordArgon2(password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}
