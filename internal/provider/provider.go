// ABOUTME: Provider interface and wire types for suggestion generation.
// ABOUTME: Request/Result mirror the external generative service contract.

package provider

import (
	"context"
	"time"
)

// Place is a saved place as sent to the suggestion service.
type Place struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Visited     bool   `json:"visited"`
}

// Request describes one suggestion generation call.
type Request struct {
	CityName       string  `json:"cityName"`
	CountryName    string  `json:"countryName"`
	SavedPlaces    []Place `json:"savedPlaces"`
	MaxSuggestions int     `json:"maxSuggestions"`
}

// Suggestion is a single recommended place.
type Suggestion struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	WhyItFits   string `json:"whyItFits"`
}

// Result is the outcome of a generation call. Results are immutable once
// produced; a new orchestration cycle replaces them wholesale.
type Result struct {
	Suggestions   []Suggestion `json:"suggestions"`
	BasedOnPlaces []string     `json:"basedOnPlaces"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}

// Provider generates suggestions for a request.
type Provider interface {
	// Name returns the provider identifier (e.g., "http", "static").
	Name() string

	// Generate produces suggestions. Implementations must respect ctx
	// cancellation and req.MaxSuggestions.
	Generate(ctx context.Context, req *Request) (*Result, error)
}
