// Package inbox ingests text snippets shared from other apps. Admission
// is idempotent under redelivery: the same raw text is stored exactly
// once, regardless of item status. Newly admitted items get a detached
// best-effort parse; parse failures leave the item visible for manual
// handling instead of discarding it.
package inbox
