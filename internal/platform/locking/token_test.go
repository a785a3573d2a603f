package locking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestToken_Stable(t *testing.T) {
	key := AccountKey(uuid.MustParse("8b8f3a0e-6b6c-4d5a-9a6e-0f42b6a0c9d1"))

	first := Token(key)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Token(key), "token must be stable across calls")
	}

	assert.NotEqual(t, Token("account:a"), Token("account:b"))
	assert.NotEqual(t, Token(JobKey("recurring_transactions")), Token(JobKey("idempotency_reaper")))
}

func TestSortKeys_DeterministicOrder(t *testing.T) {
	a := "account:1111"
	b := "account:2222"

	// A transfer and its reverse see the same acquisition order.
	assert.Equal(t, []string{a, b}, sortKeys([]string{a, b}))
	assert.Equal(t, []string{a, b}, sortKeys([]string{b, a}))
}

func TestSortKeys_Deduplicates(t *testing.T) {
	k := "account:1111"
	assert.Equal(t, []string{k}, sortKeys([]string{k, k}))
	assert.Empty(t, sortKeys(nil))
}
