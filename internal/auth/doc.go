// Package auth provides JWT-based bearer authentication for the HTTP
// API. Tokens are HS256 signed with a shared secret; an empty secret
// disables authentication entirely, which is the expected mode for
// on-device or local development use.
package auth
