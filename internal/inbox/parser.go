// ABOUTME: Parsers that extract place drafts from shared text.
// ABOUTME: HTTPParser calls the extraction endpoint; HeuristicParser is local.

package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/travelist/suggest-gateway/internal/provider"
)

// Parser extracts structured place drafts from raw shared text.
type Parser interface {
	Parse(ctx context.Context, rawText string) ([]ParsedPlace, error)
}

const maxParseResponseSize = 1 << 20 // 1MB

// HTTPParser sends shared text to the extraction endpoint and decodes
// the JSON place list from the response, tolerating markdown fences and
// other wrapping in the model output.
type HTTPParser struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewHTTPParser creates a parser for the given extraction endpoint.
func NewHTTPParser(endpoint, apiKey, model string) *HTTPParser {
	return &HTTPParser{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type extractRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

type extractResponse struct {
	Places []ParsedPlace `json:"places"`
}

// Parse implements Parser.
func (p *HTTPParser) Parse(ctx context.Context, rawText string) ([]ParsedPlace, error) {
	body, err := json.Marshal(extractRequest{Model: p.model, Text: rawText})
	if err != nil {
		return nil, fmt.Errorf("encoding extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, provider.NewTransientError(fmt.Errorf("extract request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxParseResponseSize))
	if err != nil {
		return nil, provider.NewTransientError(fmt.Errorf("reading extract response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, provider.ClassifyHTTPError(resp.StatusCode, raw)
	}

	cleaned := provider.ExtractJSON(string(raw))
	if cleaned == "" {
		return nil, provider.NewTransientError(fmt.Errorf("extract response contains no JSON object"))
	}

	var out extractResponse
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, provider.NewTransientError(fmt.Errorf("decoding extract response: %w", err))
	}

	places := make([]ParsedPlace, 0, len(out.Places))
	for _, pl := range out.Places {
		if strings.TrimSpace(pl.Name) == "" {
			continue
		}
		places = append(places, pl)
	}
	return places, nil
}

// HeuristicParser is the local fallback. It scans lines for name-like
// text and guesses categories from keywords. It never fails; text it
// cannot interpret yields an empty list.
type HeuristicParser struct{}

// NewHeuristicParser creates the local fallback parser.
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{}
}

// categoryKeywords maps lowercase substrings to a guessed category.
// Ordered so more specific words win over generic ones.
var categoryKeywords = []struct {
	word     string
	category string
}{
	{"museum", "museum"},
	{"gallery", "museum"},
	{"restaurant", "restaurant"},
	{"bistro", "restaurant"},
	{"trattoria", "restaurant"},
	{"cafe", "cafe"},
	{"café", "cafe"},
	{"coffee", "cafe"},
	{"bakery", "cafe"},
	{"bar", "bar"},
	{"pub", "bar"},
	{"park", "park"},
	{"garden", "park"},
	{"market", "market"},
	{"hotel", "hotel"},
	{"hostel", "hotel"},
	{"church", "landmark"},
	{"cathedral", "landmark"},
	{"temple", "landmark"},
	{"tower", "landmark"},
	{"palace", "landmark"},
	{"castle", "landmark"},
	{"bridge", "landmark"},
	{"beach", "nature"},
	{"trail", "nature"},
	{"viewpoint", "viewpoint"},
}

// Parse implements Parser.
func (p *HeuristicParser) Parse(_ context.Context, rawText string) ([]ParsedPlace, error) {
	var places []ParsedPlace
	seen := make(map[string]bool)

	for _, line := range strings.Split(rawText, "\n") {
		name := cleanLine(line)
		if name == "" || !looksLikeName(name) {
			continue
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		places = append(places, ParsedPlace{
			Name:     name,
			Category: guessCategory(lower),
		})
	}
	return places, nil
}

// cleanLine strips list markers, URLs, and surrounding punctuation.
func cleanLine(line string) string {
	s := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "• ", "· "} {
		s = strings.TrimPrefix(s, marker)
	}
	// Numbered list markers like "1. " or "2) "
	if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }); i > 0 && i < len(s) {
		if s[i] == '.' || s[i] == ')' {
			s = strings.TrimSpace(s[i+1:])
		}
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return ""
	}
	return strings.Trim(s, " \t.,!?\"'")
}

// looksLikeName filters lines that are clearly prose rather than a
// place name: too long, too many words, or no letters at all.
func looksLikeName(s string) bool {
	if len(s) > 80 {
		return false
	}
	if len(strings.Fields(s)) > 8 {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func guessCategory(lower string) string {
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.word) {
			return kw.category
		}
	}
	return ""
}
