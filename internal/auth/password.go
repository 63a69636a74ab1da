package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// maxPasswordBytes is the bcrypt input limit; argon2id uses the same bound so switching is lossless.
const maxPasswordBytes = 72

// Hasher produces bcrypt or argon2id hashes. Compare accepts either format.
type Hasher struct {
	algorithm  string
	bcryptCost int
}

func NewHasher(algorithm string, bcryptCost int) (*Hasher, error) {
	switch algorithm {
	case HashBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, bcryptCost)
		}
	case HashArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
	return &Hasher{algorithm: algorithm, bcryptCost: bcryptCost}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == HashArgon2id {
		return hashArgon2id(password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *Hasher) Compare(encodedHash, password string) bool {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(encodedHash, password)
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	default:
		return false
	}
}

// hashArgon2id creates an argon2id hash of the password
func hashArgon2id(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyArgon2id(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}
