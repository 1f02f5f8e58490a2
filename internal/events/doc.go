// Package events defines the observable steps of the classification
// pipeline as typed events: a text entering the queue, a batch flush
// starting, a batch merging, a batch failing. The session emits them
// through an in-memory emitter; subscribers such as the status tracker
// react without the pipeline knowing who is listening.
//
// Events carry their payload as raw JSON so handlers decode only the
// types they care about, and every event gets an id and timestamp for
// log correlation.
package events
