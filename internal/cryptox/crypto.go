// Package cryptox wraps bcrypt for storing and checking account passwords.
package cryptox

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts. Longer input is
// rejected instead of being silently truncated.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashCost is the bcrypt work factor used for new digests. Tests lower it.
var HashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt digest of password.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches digest. Malformed digests
// never match.
func VerifyPassword(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

var (
	dummyOnce   sync.Once
	dummyDigest []byte
)

// BurnCompare performs a comparison against a throwaway digest so that a
// lookup miss takes as long as a wrong password.
func BurnCompare(password string) {
	dummyOnce.Do(func() {
		dummyDigest, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), HashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyDigest, []byte(password))
}
