// Package cache implements the two-tier suggestion cache: an in-memory
// map consulted first, backed by a durable key-value store. Caching is a
// performance optimization only; durable-tier failures are swallowed and
// never surface to callers.
package cache
