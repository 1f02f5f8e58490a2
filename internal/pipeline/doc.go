// Package pipeline implements the debounced batching queue that sits between
// task entry and the remote classifier. Texts accumulate in an ordered,
// deduplicated queue; a debounce timer refreshed on every new text flushes
// the accumulated batch once input quiesces. Flushes may overlap: while one
// batch is in flight new texts start an independent debounce cycle.
//
// The queue is a pure mechanism. It knows nothing about classification or
// persistence; the owner supplies a flush callback and reconciles results.
package pipeline
