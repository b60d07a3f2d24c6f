package accounts

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/postbridge/postbridge/internal/common"
)

const saltSize = 32

// HashPassword derives the stored credential with argon2id. The parameters
// are fixed: changing them would invalidate every stored hash.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// NewSalt returns a fresh per-account salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(saltSize)
}

// VerifyPassword re-derives the hash for candidate and compares it against
// the stored hash in constant time.
func VerifyPassword(hash []byte, candidate string, salt []byte) bool {
	return subtle.ConstantTimeCompare(hash, HashPassword(candidate, salt)) == 1
}
