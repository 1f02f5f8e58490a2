// Package gemini implements the classify boundary interfaces against
// Google's Gemini API: batch classification into the three triage matrices,
// task decomposition, and next-task suggestion.
//
// This package is an infrastructure adapter, connecting the classification
// pipeline to the external model service. It renders prompts from templates
// with the request payload embedded as JSON, requires JSON-only replies, and
// validates every reply before anything reaches the pipeline: classification
// items that echo an unknown text or carry an out-of-domain quadrant key are
// dropped individually, while transport failures, unparseable replies, and
// safety blocks fail the whole call.
//
// Calls are never retried. A failed classification batch is abandoned and
// its texts must be re-submitted by the user; decomposition and suggestion
// failures surface directly to the caller. Each call is bounded by the
// configured request timeout.
package gemini
