// Package locking provides the two concurrency primitives that complement
// optimistic row versioning: transaction-scoped advisory locks serializing
// compound multi-step workflows, and session-scoped job locks giving
// background jobs cluster-wide mutual exclusion. Both degrade to no-ops on
// backends without advisory lock support.
package locking

import (
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
)

// Token maps a logical lock key to a signed 64-bit advisory lock token using
// FNV-1a, so the same key always yields the same token in every process.
func Token(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// AccountKey is the logical lock key for an account.
func AccountKey(id uuid.UUID) string {
	return "account:" + id.String()
}

// JobKey is the logical lock key for a named background job.
func JobKey(name string) string {
	return "job:" + name
}

// sortKeys returns the deduplicated keys in lexicographic order. Every caller
// acquiring multiple locks goes through this, which rules out circular-wait
// deadlocks: the global acquisition order is deterministic.
func sortKeys(keys []string) []string {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	return sorted
}
