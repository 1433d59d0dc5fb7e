// Package headers defines HTTP header constants used across the Paylith platform.
// This is the single source of truth for header names used in API requests/responses.
package headers

const (
	// RequestID is the header for request correlation / idempotency.
	// Clients can supply this header for idempotency on retries.
	RequestID = "X-Paylith-Request-Id"

	// FirstAdminRegistration marks the one-time first-privileged-account
	// bootstrap call. The marker is client-internal: the request pipeline
	// skips credential attachment for requests carrying it and strips it
	// before transmission.
	FirstAdminRegistration = "X-First-Admin-Registration"
)
