package collection

import "strings"

// DedupPolicy decides whether a candidate is already represented in the
// existing records.
type DedupPolicy[T any] interface {
	IsDuplicate(existing []T, candidate T) bool
}

// KeyPolicy treats two records as the same when their natural keys are
// equal ignoring case.
type KeyPolicy[T any] struct {
	Key func(T) string
}

// ByKey builds a KeyPolicy from a natural key accessor.
func ByKey[T any](key func(T) string) KeyPolicy[T] {
	return KeyPolicy[T]{Key: key}
}

func (p KeyPolicy[T]) IsDuplicate(existing []T, candidate T) bool {
	k := p.Key(candidate)
	for _, rec := range existing {
		if strings.EqualFold(p.Key(rec), k) {
			return true
		}
	}
	return false
}

// Contains reports whether key is already present in the collection
// according to policy. It is a point-in-time check; use AppendUnique for
// the insert itself.
func Contains[T any](c *Collection[T], policy KeyPolicy[T], key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		if strings.EqualFold(policy.Key(rec), key) {
			return true
		}
	}
	return false
}
