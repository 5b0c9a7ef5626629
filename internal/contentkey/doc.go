// Package contentkey derives stable cache keys from a user's saved-place
// set. Two set-equal inputs for the same city produce identical keys; any
// membership, category, or visited change produces a different key.
package contentkey
