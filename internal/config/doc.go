// Package config loads and validates the server's runtime settings from
// TRIAGE_-prefixed environment variables and an optional config.yaml, with
// environment values taking precedence. Settings are grouped by concern
// (server, database, LLM, pipeline) and validated up front, so a process
// that starts has a usable configuration.
package config
