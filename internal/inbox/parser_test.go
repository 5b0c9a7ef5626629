// ABOUTME: Tests for the HTTP and heuristic place parsers.
// ABOUTME: HTTP behavior is exercised against httptest servers.

package inbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelist/suggest-gateway/internal/provider"
)

func TestHTTPParser_DecodesPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"places":[{"name":"Louvre","category":"museum"},{"name":"  "},{"name":"Le Marais"}]}`))
	}))
	defer srv.Close()

	p := NewHTTPParser(srv.URL, "test-key", "")
	places, err := p.Parse(context.Background(), "we should see the Louvre and Le Marais")
	require.NoError(t, err)
	require.Len(t, places, 2, "blank names are dropped")
	assert.Equal(t, "Louvre", places[0].Name)
	assert.Equal(t, "Le Marais", places[1].Name)
}

func TestHTTPParser_ToleratesFencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Here you go:\n```json\n{\"places\":[{\"name\":\"Retiro Park\",\"category\":\"park\"}]}\n```"))
	}))
	defer srv.Close()

	p := NewHTTPParser(srv.URL, "", "")
	places, err := p.Parse(context.Background(), "any")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Retiro Park", places[0].Name)
}

func TestHTTPParser_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPParser(srv.URL, "", "")
	_, err := p.Parse(context.Background(), "any")
	require.Error(t, err)
	assert.True(t, provider.IsTransient(err))
}

func TestHTTPParser_AuthErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewHTTPParser(srv.URL, "wrong", "")
	_, err := p.Parse(context.Background(), "any")
	require.Error(t, err)
	assert.True(t, provider.IsFatal(err))
}

func TestHeuristicParser_ExtractsListLines(t *testing.T) {
	text := "places to hit in Paris:\n- Louvre Museum\n* Café de Flore\n1. Jardin du Luxembourg\nhttps://example.com/guide\n\nthis is a really long sentence about how excited I am for the whole trip and everything we will do"

	p := NewHeuristicParser()
	places, err := p.Parse(context.Background(), text)
	require.NoError(t, err)

	names := make([]string, len(places))
	for i, pl := range places {
		names[i] = pl.Name
	}
	assert.Contains(t, names, "Louvre Museum")
	assert.Contains(t, names, "Café de Flore")
	assert.Contains(t, names, "Jardin du Luxembourg")
	assert.NotContains(t, names, "https://example.com/guide")
}

func TestHeuristicParser_GuessesCategories(t *testing.T) {
	p := NewHeuristicParser()
	places, err := p.Parse(context.Background(), "Louvre Museum\nCafé de Flore\nPont Neuf bridge\nsome random spot")
	require.NoError(t, err)
	require.Len(t, places, 4)

	byName := make(map[string]string)
	for _, pl := range places {
		byName[pl.Name] = pl.Category
	}
	assert.Equal(t, "museum", byName["Louvre Museum"])
	assert.Equal(t, "cafe", byName["Café de Flore"])
	assert.Equal(t, "landmark", byName["Pont Neuf bridge"])
	assert.Equal(t, "", byName["some random spot"])
}

func TestHeuristicParser_DeduplicatesCaseInsensitively(t *testing.T) {
	p := NewHeuristicParser()
	places, err := p.Parse(context.Background(), "Louvre\nlouvre\nLOUVRE")
	require.NoError(t, err)
	assert.Len(t, places, 1)
}
