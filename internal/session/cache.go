package session

import (
	"github.com/phrazzld/triage-api/internal/domain"
)

// ClassificationCache is a permanent memo from literal task text to its
// resolved quadrant triple. Entries are never evicted or expired: text
// equality is exact (case-sensitive, trimmed at entry time), and a hit
// short-circuits the classification pipeline entirely.
//
// Not safe for concurrent use; the owning Session serializes access.
type ClassificationCache struct {
	entries map[string]domain.QuadrantSet
}

// NewClassificationCache creates an empty cache.
func NewClassificationCache() *ClassificationCache {
	return &ClassificationCache{
		entries: make(map[string]domain.QuadrantSet),
	}
}

// Lookup returns the memoized triple for text, if any.
func (c *ClassificationCache) Lookup(text string) (domain.QuadrantSet, bool) {
	triple, ok := c.entries[text]
	return triple, ok
}

// Put memoizes the triple for text. Later writes for the same text replace
// earlier ones; in practice a hit short-circuits the pipeline before a second
// classification for the same text is ever requested.
func (c *ClassificationCache) Put(text string, triple domain.QuadrantSet) error {
	if text == "" {
		return domain.ErrEmptyTaskText
	}
	if err := triple.Validate(); err != nil {
		return err
	}
	c.entries[text] = triple
	return nil
}

// Len returns the number of memoized texts.
func (c *ClassificationCache) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the underlying map.
func (c *ClassificationCache) Entries() map[string]domain.QuadrantSet {
	out := make(map[string]domain.QuadrantSet, len(c.entries))
	for text, triple := range c.entries {
		out[text] = triple
	}
	return out
}

// Replace swaps the entire cache contents, used when restoring a snapshot.
// Every incoming triple must be valid; otherwise the cache is left untouched.
func (c *ClassificationCache) Replace(entries map[string]domain.QuadrantSet) error {
	for text, triple := range entries {
		if text == "" {
			return domain.ErrEmptyTaskText
		}
		if err := triple.Validate(); err != nil {
			return err
		}
	}
	fresh := make(map[string]domain.QuadrantSet, len(entries))
	for text, triple := range entries {
		fresh[text] = triple
	}
	c.entries = fresh
	return nil
}
