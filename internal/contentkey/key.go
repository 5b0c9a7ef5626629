// ABOUTME: Deterministic cache key derivation from a saved-place snapshot.
// ABOUTME: Pure function; order-independent over items, scoped per city.

package contentkey

import (
	"sort"
	"strconv"
	"strings"
)

// Scope identifies the city a saved-place set belongs to. Keys are never
// shared across scopes.
type Scope struct {
	CityName    string
	CountryName string
}

// Item is one saved place as it contributes to the key. The visited flag
// is part of the key on purpose: marking a place visited is treated as an
// engagement change that warrants fresh suggestions.
type Item struct {
	Name     string
	Category string
	Visited  bool
}

// Compute returns the cache key for a scope and item set. Items are
// sorted by name (case-insensitive, ordinal) so that set-equal inputs
// produce identical keys regardless of order. An empty item list yields
// a valid scope-only key; whether to cache for empty input is the
// caller's decision.
func Compute(scope Scope, items []Item) string {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		// Total order: lowercase-name ties fall through to raw name,
		// then category, then visited, so input order never leaks in.
		if al, bl := strings.ToLower(a.Name), strings.ToLower(b.Name); al != bl {
			return al < bl
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return !a.Visited && b.Visited
	})

	var b strings.Builder
	b.WriteString(strings.ToLower(scope.CityName))
	b.WriteString(",")
	b.WriteString(strings.ToLower(scope.CountryName))
	b.WriteString("::")
	for i, it := range sorted {
		if i > 0 {
			b.WriteString("|")
		}
		b.WriteString(it.Name)
		b.WriteString(":")
		b.WriteString(it.Category)
		b.WriteString(":")
		b.WriteString(strconv.FormatBool(it.Visited))
	}
	return b.String()
}
