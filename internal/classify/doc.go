// Package classify provides the interfaces and result types for the external
// text-classification service boundary. It abstracts the details of LLM API
// integration (Gemini), allowing the pipeline to classify, decompose, and
// prioritize tasks without coupling to a specific external service.
package classify
