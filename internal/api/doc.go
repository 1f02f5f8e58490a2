// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts HTTP concerns to session operations:
// handlers decode and validate payloads, call the single triage session,
// and translate its errors into sanitized JSON responses.
package api
