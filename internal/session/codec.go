package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/triage-api/internal/domain"
)

// Snapshot and share-fragment codec. Both persistence sinks carry the same
// JSON: the slot stores it raw, the shareable fragment wraps it in URL-safe
// base64. Task field order is stable (id, text, completed, quadrants) via
// the struct definition in the domain package.

// EncodeTasks serializes the task list for persistence. A nil or empty list
// encodes as an empty JSON array so the empty state round-trips.
func EncodeTasks(tasks []domain.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task snapshot: %w", err)
	}
	return data, nil
}

// DecodeTasks parses and validates snapshot bytes. Any malformed JSON or
// invalid task yields ErrMalformedSnapshot; partial snapshots are never
// returned. A task missing its completed field decodes as incomplete, which
// migrates legacy snapshots written before that field existed.
func DecodeTasks(data []byte) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformedSnapshot, i, err)
		}
	}
	return tasks, nil
}

// EncodeFragment serializes the task list as a URL-shareable base64 string,
// so a session can be restored from a link alone.
func EncodeFragment(tasks []domain.Task) (string, error) {
	data, err := EncodeTasks(tasks)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeFragment reverses EncodeFragment, validating the embedded tasks.
func DecodeFragment(fragment string) ([]domain.Task, error) {
	data, err := base64.URLEncoding.DecodeString(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return DecodeTasks(data)
}

// EncodeCache serializes the classification cache. JSON object keys are
// emitted in sorted order, so identical caches produce identical bytes.
func EncodeCache(entries map[string]domain.QuadrantSet) ([]byte, error) {
	if entries == nil {
		entries = map[string]domain.QuadrantSet{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache snapshot: %w", err)
	}
	return data, nil
}

// DecodeCache parses and validates cache snapshot bytes. Any malformed JSON
// or invalid triple yields ErrMalformedSnapshot.
func DecodeCache(data []byte) (map[string]domain.QuadrantSet, error) {
	var entries map[string]domain.QuadrantSet
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	for text, triple := range entries {
		if text == "" {
			return nil, fmt.Errorf("%w: empty cache key", ErrMalformedSnapshot)
		}
		if err := triple.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrMalformedSnapshot, text, err)
		}
	}
	if entries == nil {
		entries = map[string]domain.QuadrantSet{}
	}
	return entries, nil
}
