// Package suggest coordinates suggestion generation: content-key
// computation, cache lookup, provider invocation with fallback, and
// in-flight coalescing so concurrent identical requests share a single
// external call.
package suggest
