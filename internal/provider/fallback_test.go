// ABOUTME: Tests for the deterministic fallback provider.
// ABOUTME: Validates determinism, max-suggestion capping, and empty input.

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_NeverFails(t *testing.T) {
	p := NewStaticProvider()
	res, err := p.Generate(context.Background(), &Request{CityName: "Lisbon"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Suggestions)
	assert.False(t, res.GeneratedAt.IsZero())
}

func TestStaticProvider_Deterministic(t *testing.T) {
	p := NewStaticProvider()
	req := &Request{
		CityName:    "Rome",
		CountryName: "Italy",
		SavedPlaces: []Place{
			{Name: "Colosseum", Category: "landmark"},
			{Name: "Galleria Borghese", Category: "museum"},
		},
		MaxSuggestions: 10,
	}

	a, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	b, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Suggestions, b.Suggestions)
	assert.Equal(t, a.BasedOnPlaces, b.BasedOnPlaces)
}

func TestStaticProvider_BasedOnPlaces(t *testing.T) {
	p := NewStaticProvider()
	req := &Request{
		CityName: "Rome",
		SavedPlaces: []Place{
			{Name: "Colosseum", Category: "landmark"},
			{Name: "Trastevere Trattoria", Category: "restaurant"},
		},
	}

	res, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Colosseum", "Trastevere Trattoria"}, res.BasedOnPlaces)
}

func TestStaticProvider_RespectsMaxSuggestions(t *testing.T) {
	p := NewStaticProvider()
	req := &Request{
		CityName: "Rome",
		SavedPlaces: []Place{
			{Name: "A", Category: "museum"},
			{Name: "B", Category: "restaurant"},
			{Name: "C", Category: "landmark"},
		},
		MaxSuggestions: 2,
	}

	res, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Suggestions, 2)
}

func TestStaticProvider_CityNameInSuggestions(t *testing.T) {
	p := NewStaticProvider()
	res, err := p.Generate(context.Background(), &Request{
		CityName:    "Kyoto",
		SavedPlaces: []Place{{Name: "Nishiki", Category: "restaurant"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Suggestions)
	assert.Contains(t, res.Suggestions[0].Name, "Kyoto")
}

func TestStaticProvider_UnknownCategoryFallsBackToDefaults(t *testing.T) {
	p := NewStaticProvider()
	res, err := p.Generate(context.Background(), &Request{
		CityName:    "Oslo",
		SavedPlaces: []Place{{Name: "X", Category: "spaceport"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Suggestions)
}
