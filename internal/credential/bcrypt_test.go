package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndCompare(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)

	hash, err := b.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, IsHash(hash))

	ok, err := b.Compare(context.Background(), hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Compare(context.Background(), hash, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHashIsIdempotent(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)
	hash, err := b.Hash("s3cret")
	require.NoError(t, err)

	again, err := b.Hash(hash)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestBcryptCompareRejectsPlainStoredValue(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Compare(context.Background(), "plain", "plain")
	assert.Error(t, err)
}

func TestBcryptCompareHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBcrypt(bcrypt.MinCost).Compare(ctx, "$2a$04$xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBcryptClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).Cost)
}
