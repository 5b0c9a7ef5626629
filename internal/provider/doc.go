// Package provider abstracts the external generative suggestion service.
// The HTTP provider calls the hosted API; the static provider is a
// dependency-free fallback that always succeeds. Callers treat any
// primary failure as a signal to invoke the fallback, never as a
// user-visible error.
package provider
