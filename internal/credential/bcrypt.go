package credential

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes secrets before they are stored and compares candidates
// against stored hashes.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) (bool, error)
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

// Hash leaves values that are already bcrypt hashes untouched.
func (b *Bcrypt) Hash(plain string) (string, error) {
	if IsHash(plain) {
		return plain, nil
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare reports a mismatch as (false, nil). A stored value that is not a
// bcrypt hash is an error. ctx is checked before the comparison starts.
func (b *Bcrypt) Compare(ctx context.Context, hash, plain string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

func IsHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
