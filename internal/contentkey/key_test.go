// ABOUTME: Tests for cache key derivation stability and sensitivity.
// ABOUTME: Covers order-independence, per-field sensitivity, and empty input.

package contentkey

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var parisScope = Scope{CityName: "Paris", CountryName: "France"}

func parisItems() []Item {
	return []Item{
		{Name: "Louvre", Category: "museum", Visited: false},
		{Name: "Eiffel Tower", Category: "landmark", Visited: true},
		{Name: "Le Comptoir", Category: "restaurant", Visited: false},
		{Name: "Sainte-Chapelle", Category: "church", Visited: false},
		{Name: "Musée d'Orsay", Category: "museum", Visited: true},
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	items := parisItems()
	want := Compute(parisScope, items)

	rng := rand.New(rand.NewSource(42))
	seen := map[string]bool{want: true}
	for i := 0; i < 100; i++ {
		shuffled := make([]Item, len(items))
		copy(shuffled, items)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		seen[Compute(parisScope, shuffled)] = true
	}

	assert.Len(t, seen, 1, "all permutations must produce a single key")
}

func TestCompute_OrderIndependentWithCaseFoldedNames(t *testing.T) {
	items := []Item{
		{Name: "Louvre", Category: "museum", Visited: false},
		{Name: "LOUVRE", Category: "bar", Visited: true},
		{Name: "louvre", Category: "cafe", Visited: false},
		{Name: "Eiffel Tower", Category: "landmark", Visited: true},
	}
	want := Compute(parisScope, items)

	rng := rand.New(rand.NewSource(7))
	seen := map[string]bool{want: true}
	for i := 0; i < 100; i++ {
		shuffled := make([]Item, len(items))
		copy(shuffled, items)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		seen[Compute(parisScope, shuffled)] = true
	}

	assert.Len(t, seen, 1, "case-folded name ties must still sort deterministically")
}

func TestCompute_VisitedChangesKey(t *testing.T) {
	items := parisItems()
	base := Compute(parisScope, items)

	items[0].Visited = !items[0].Visited
	assert.NotEqual(t, base, Compute(parisScope, items))
}

func TestCompute_CategoryChangesKey(t *testing.T) {
	items := parisItems()
	base := Compute(parisScope, items)

	items[2].Category = "bar"
	assert.NotEqual(t, base, Compute(parisScope, items))
}

func TestCompute_MembershipChangesKey(t *testing.T) {
	items := parisItems()
	base := Compute(parisScope, items)

	removed := Compute(parisScope, items[1:])
	assert.NotEqual(t, base, removed)

	added := Compute(parisScope, append(parisItems(), Item{Name: "Panthéon", Category: "landmark"}))
	assert.NotEqual(t, base, added)
}

func TestCompute_ScopeChangesKey(t *testing.T) {
	items := parisItems()
	base := Compute(parisScope, items)

	assert.NotEqual(t, base, Compute(Scope{CityName: "Lyon", CountryName: "France"}, items))
}

func TestCompute_ScopeCaseInsensitive(t *testing.T) {
	items := parisItems()
	upper := Compute(Scope{CityName: "PARIS", CountryName: "FRANCE"}, items)
	assert.Equal(t, Compute(parisScope, items), upper)
}

func TestCompute_EmptyItems(t *testing.T) {
	key := Compute(parisScope, nil)
	assert.NotEmpty(t, key)
	assert.Equal(t, key, Compute(parisScope, []Item{}))
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	items := []Item{
		{Name: "Zoo", Category: "park"},
		{Name: "Aquarium", Category: "park"},
	}
	Compute(parisScope, items)
	assert.Equal(t, "Zoo", items[0].Name, "input slice order must be preserved")
}
