package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hashing schemes accepted by NewHasher.
const (
	SchemeBcrypt = "bcrypt"
	SchemeSHA256 = "sha256"
)

// Hasher turns a password into a stored digest and checks candidates against it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// NewHasher builds the hasher for scheme. An empty scheme means bcrypt.
func NewHasher(scheme string, cost int) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeBcrypt:
		return NewBcryptHasher(cost), nil
	case SchemeSHA256:
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
}

// SHA256Hasher is the legacy scheme: unsalted lower-case hex SHA-256.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	return sha256Hex(password), nil
}

func (SHA256Hasher) Verify(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(sha256Hex(password))) == 1
}

// BcryptHasher salts and stretches passwords. Verify still accepts legacy
// SHA-256 digests so existing accounts keep working.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	if IsLegacyHash(hash) {
		return SHA256Hasher{}.Verify(hash, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsLegacyHash reports whether hash looks like a SHA-256 hex digest.
func IsLegacyHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func sha256Hex(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
