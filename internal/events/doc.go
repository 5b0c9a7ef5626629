// Package events provides an in-memory fan-out broadcaster for advisory
// state-change notifications. Delivery is best-effort with no ordering
// guarantee across subscribers; events are refresh hints, never used for
// correctness.
package events
