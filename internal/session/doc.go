// Package session implements the task-triage pipeline core: the canonical
// task list, the permanent text-to-classification cache, the debounced batch
// queue wiring, and the merge protocol that reconciles asynchronous batch
// results with concurrent user edits.
//
// One Session owns all mutable state. Its mutex serializes mutations, so
// concurrency only exists at the edges: classifier calls run off the debounce
// timer's goroutine and merge their results back under the lock whenever they
// complete, in any order. Both the task list and the cache are mirrored to
// durable snapshot slots on every mutation; a URL-shareable base64 fragment
// carries the task list alone.
package session
