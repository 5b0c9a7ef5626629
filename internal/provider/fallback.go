// ABOUTME: Deterministic local fallback provider used when the primary fails.
// ABOUTME: Builds category-complement suggestions; has no external dependency.

package provider

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// complements maps a saved-place category to generic follow-up
// suggestions for the same trip. Entries are phrased per-city via the
// request scope.
var complements = map[string][]Suggestion{
	"museum": {
		{Name: "%s Old Town walk", Category: "walk", Description: "A self-guided walk through the historic center of %s.", WhyItFits: "Pairs well with the museums you have saved."},
		{Name: "%s sculpture garden", Category: "park", Description: "Open-air art near the center of %s.", WhyItFits: "A lighter counterpart to your museum picks."},
	},
	"restaurant": {
		{Name: "%s central market", Category: "market", Description: "The main food market of %s.", WhyItFits: "You clearly care about eating well here."},
		{Name: "%s café quarter", Category: "cafe", Description: "The streets locals go to for coffee in %s.", WhyItFits: "Rounds out the restaurants on your list."},
	},
	"landmark": {
		{Name: "%s viewpoint", Category: "viewpoint", Description: "The best panorama over %s.", WhyItFits: "See your saved landmarks from above."},
		{Name: "%s river walk", Category: "walk", Description: "A waterside route connecting the sights of %s.", WhyItFits: "Links several of your saved places on foot."},
	},
	"park": {
		{Name: "%s botanical garden", Category: "park", Description: "The quieter green space in %s.", WhyItFits: "More of the outdoors you have been saving."},
	},
	"bar": {
		{Name: "%s evening food street", Category: "street-food", Description: "Late-night eats near the bars of %s.", WhyItFits: "Something to anchor a night out."},
	},
}

// defaultSuggestions is used when no saved category has a complement.
var defaultSuggestions = []Suggestion{
	{Name: "%s Old Town walk", Category: "walk", Description: "A self-guided walk through the historic center of %s.", WhyItFits: "A safe first stop in any city."},
	{Name: "%s central market", Category: "market", Description: "The main food market of %s.", WhyItFits: "Good for a first feel of the city."},
	{Name: "%s viewpoint", Category: "viewpoint", Description: "The best panorama over %s.", WhyItFits: "Orients you before the rest of your list."},
}

// StaticProvider is the dependency-free fallback. Generate never fails.
type StaticProvider struct{}

// NewStaticProvider creates the fallback provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Name returns the provider identifier.
func (s *StaticProvider) Name() string {
	return "static"
}

// Generate builds deterministic suggestions from the saved-place
// categories. Identical requests always produce identical results.
func (s *StaticProvider) Generate(_ context.Context, req *Request) (*Result, error) {
	categories := make([]string, 0, len(req.SavedPlaces))
	seen := make(map[string]bool)
	based := make([]string, 0, len(req.SavedPlaces))
	for _, p := range req.SavedPlaces {
		based = append(based, p.Name)
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)

	var picks []Suggestion
	for _, cat := range categories {
		picks = append(picks, complements[cat]...)
	}
	if len(picks) == 0 {
		picks = append(picks, defaultSuggestions...)
	}

	max := req.MaxSuggestions
	if max <= 0 || max > len(picks) {
		max = len(picks)
	}

	suggestions := make([]Suggestion, 0, max)
	for _, tmpl := range picks[:max] {
		suggestions = append(suggestions, Suggestion{
			Name:        fmt.Sprintf(tmpl.Name, req.CityName),
			Category:    tmpl.Category,
			Description: fmt.Sprintf(tmpl.Description, req.CityName),
			WhyItFits:   tmpl.WhyItFits,
		})
	}

	return &Result{
		Suggestions:   suggestions,
		BasedOnPlaces: based,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
