package pwhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("the encoded hash is not in the correct format")
	ErrIncompatibleVersion = errors.New("incompatible version of argon2")
)

const (
	saltLength = 16
	keyLength  = 32
)

var (
	memory      uint32 = 64 * 1024
	iterations  uint32 = 4
	parallelism uint8  = 1
)

// InitArgonParams overrides the default argon2id cost parameters. Call
// once at process start, before any password is hashed.
func InitArgonParams(argonMemory uint32, argonIterations uint32, argonParallelism uint8) {
	if argonMemory > 0 {
		memory = argonMemory
	}
	if argonIterations > 0 {
		iterations = argonIterations
	}
	if argonParallelism > 0 {
		parallelism = argonParallelism
	}
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encodedHash := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, memory, iterations, parallelism, b64Salt, b64Hash)
	return encodedHash, nil
}

// ComparePasswordWithHash checks the password candidate against the
// stored encoded hash in constant time.
func ComparePasswordWithHash(encodedHash string, password string) (bool, error) {
	m, t, p, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}

func decodeHash(encodedHash string) (m uint32, t uint32, p uint8, salt []byte, hash []byte, err error) {
	values := strings.Split(encodedHash, "$")
	if len(values) != 6 || values[1] != "argon2id" {
		return 0, 0, 0, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(values[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(values[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(values[4])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}

	hash, err = base64.RawStdEncoding.DecodeString(values[5])
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}

	return m, t, p, salt, hash, nil
}
