package account

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewAccount(t *testing.T) {
	userID := uuid.New()
	acc := NewAccount(userID)

	assert.NotEqual(t, uuid.Nil, acc.ID)
	assert.Equal(t, userID, acc.UserID)
	assert.True(t, acc.Balance.IsZero())
	assert.Equal(t, int64(0), acc.Version)
	assert.True(t, acc.IsActive)
	assert.False(t, acc.CreatedAt.IsZero())
}

func TestAccount_Deactivate(t *testing.T) {
	acc := NewAccount(uuid.New())
	before := acc.UpdatedAt

	acc.Deactivate()
	assert.False(t, acc.IsActive)
	assert.False(t, acc.UpdatedAt.Before(before))
}

func TestConcurrencyErrors_Is(t *testing.T) {
	accID := uuid.New()

	conflict := ErrConcurrentModification{AccountID: accID}
	assert.True(t, errors.Is(conflict, ErrConcurrentModification{}))
	assert.True(t, errors.Is(conflict, ErrConcurrentModification{AccountID: accID}))
	assert.False(t, errors.Is(conflict, ErrConcurrentModification{AccountID: uuid.New()}))

	notFound := ErrAccountNotFound{AccountID: accID}
	assert.True(t, errors.Is(notFound, ErrAccountNotFound{}))
	assert.False(t, errors.Is(notFound, ErrAccountNotFound{AccountID: uuid.New()}))
	assert.False(t, errors.Is(conflict, ErrAccountNotFound{}))
}
