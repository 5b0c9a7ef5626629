// Package gateway wires the suggest-gateway server together: the kv
// store, suggestion cache, orchestrator, inbox, and event broadcaster
// behind an HTTP API with optional JWT auth and SSE update streaming.
package gateway
