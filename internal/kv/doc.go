// Package kv provides the durable key-value tier behind the suggestion
// cache and the share inbox. The interface is deliberately small so the
// backing store can be swapped (in-memory for tests, SQLite for the
// daemon) without touching cache logic.
package kv
