// Package cache provides the short-lived key/value store used to
// correlate one in-flight authorization attempt across the OAuth
// redirect round-trip. Entries are write-once/read-once/delete-once per
// flow instance; Delete returns the previous value so a consume can be
// expressed as one call.
package cache

import "time"

// NoTTL keeps an entry until it is deleted.
const NoTTL time.Duration = -1

// Cache is the correlation store contract. Implementations need not be
// safe for concurrent use of the same key: correlation keys are scoped
// to one adapter type and one logical flow.
type Cache interface {
	// Set stores value under key. A ttl <= 0 means no explicit expiry.
	Set(key string, value []byte, ttl time.Duration) error
	// Get returns the stored value, or nil when the key is absent or
	// expired.
	Get(key string) ([]byte, error)
	// Delete removes the key and returns the previous value, or nil
	// when there was none.
	Delete(key string) ([]byte, error)
}
