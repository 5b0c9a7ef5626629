// ABOUTME: HTTP API handlers for suggestions, inbox ingestion, and SSE updates.
// ABOUTME: JSON request/response types use snake_case wire names.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/travelist/suggest-gateway/internal/contentkey"
	"github.com/travelist/suggest-gateway/internal/events"
	"github.com/travelist/suggest-gateway/internal/inbox"
	"github.com/travelist/suggest-gateway/internal/provider"
	"github.com/travelist/suggest-gateway/internal/suggest"
)

// PlaceRequest is one saved place in a suggestions request.
type PlaceRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Visited  bool   `json:"visited"`
}

// SuggestionsRequest is the JSON request body for POST /api/suggestions.
type SuggestionsRequest struct {
	CityName     string         `json:"city_name"`
	CountryName  string         `json:"country_name"`
	SavedPlaces  []PlaceRequest `json:"saved_places"`
	ForceRefresh bool           `json:"force_refresh,omitempty"`
}

// SuggestionResponse is one suggestion in a suggestions response.
type SuggestionResponse struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	WhyItFits   string `json:"why_it_fits,omitempty"`
}

// SuggestionsResponse is the JSON response for POST /api/suggestions.
type SuggestionsResponse struct {
	Suggestions   []SuggestionResponse `json:"suggestions"`
	BasedOnPlaces []string             `json:"based_on_places"`
	GeneratedAt   string               `json:"generated_at"`
	Loading       bool                 `json:"loading"`
}

// IngestRequest is the JSON request body for POST /api/inbox/ingest.
type IngestRequest struct {
	Items []IngestItem `json:"items"`
}

// IngestItem is one shared snippet in an ingest request.
type IngestItem struct {
	RawText   string `json:"raw_text"`
	SourceApp string `json:"source_app,omitempty"`
}

// IngestResponse is the JSON response for POST /api/inbox/ingest.
// Admitted reports how many items were newly created; the rest were
// duplicates. All delivered items are acknowledged either way so the
// sender can clear its outbox.
type IngestResponse struct {
	Acknowledged int                 `json:"acknowledged"`
	Admitted     int                 `json:"admitted"`
	Items        []InboxItemResponse `json:"items"`
}

// InboxItemResponse is the JSON shape of one inbox item.
type InboxItemResponse struct {
	ID           string              `json:"id"`
	RawText      string              `json:"raw_text"`
	SourceApp    string              `json:"source_app,omitempty"`
	ReceivedAt   string              `json:"received_at"`
	Status       string              `json:"status"`
	Error        string              `json:"error,omitempty"`
	ParsedPlaces []inbox.ParsedPlace `json:"parsed_places,omitempty"`
}

// ListInboxResponse is the JSON response for GET /api/inbox.
type ListInboxResponse struct {
	Items []InboxItemResponse `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleSuggestions handles POST /api/suggestions requests. DELETE with
// the same body drops the cached entry for that scope and place set.
func (g *Gateway) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost, http.MethodDelete:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req SuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CityName == "" {
		writeError(w, http.StatusBadRequest, "city_name is required")
		return
	}

	scope := contentkey.Scope{CityName: req.CityName, CountryName: req.CountryName}
	places := make([]provider.Place, len(req.SavedPlaces))
	for i, p := range req.SavedPlaces {
		places[i] = provider.Place{Name: p.Name, Category: p.Category, Visited: p.Visited}
	}

	if r.Method == http.MethodDelete {
		g.orchestrator.Invalidate(r.Context(), scope, places)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	res, err := g.orchestrator.Request(r.Context(), scope, places, suggest.Options{ForceRefresh: req.ForceRefresh})
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			// Client went away; nothing useful to write
			return
		}
		writeError(w, http.StatusInternalServerError, "suggestion generation failed")
		return
	}

	writeJSON(w, http.StatusOK, toSuggestionsResponse(res, g.orchestrator.Loading()))
}

func toSuggestionsResponse(res *provider.Result, loading bool) SuggestionsResponse {
	out := SuggestionsResponse{
		Suggestions:   make([]SuggestionResponse, 0, len(res.Suggestions)),
		BasedOnPlaces: res.BasedOnPlaces,
		GeneratedAt:   res.GeneratedAt.Format(time.RFC3339),
		Loading:       loading,
	}
	if out.BasedOnPlaces == nil {
		out.BasedOnPlaces = []string{}
	}
	for _, s := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, SuggestionResponse{
			Name:        s.Name,
			Category:    s.Category,
			Description: s.Description,
			WhyItFits:   s.WhyItFits,
		})
	}
	return out
}

// handleInboxIngest handles POST /api/inbox/ingest requests. Every
// deliverable item is acknowledged, duplicates included, so senders can
// safely clear their outbox after a 200.
func (g *Gateway) handleInboxIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	resp := IngestResponse{Items: make([]InboxItemResponse, 0, len(req.Items))}
	for _, in := range req.Items {
		item, created, err := g.inbox.Admit(r.Context(), in.RawText, in.SourceApp)
		if err != nil {
			if errors.Is(err, inbox.ErrEmptyText) {
				// Empty snippets are acknowledged but never stored
				resp.Acknowledged++
				continue
			}
			writeError(w, http.StatusInternalServerError, "inbox admission failed")
			return
		}
		resp.Acknowledged++
		if created {
			resp.Admitted++
		}
		resp.Items = append(resp.Items, toInboxItemResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleInboxList handles GET /api/inbox requests.
func (g *Gateway) handleInboxList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	items, err := g.inbox.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing inbox failed")
		return
	}

	resp := ListInboxResponse{Items: make([]InboxItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toInboxItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInboxItem handles GET /api/inbox/{id} and POST /api/inbox/{id}/import.
func (g *Gateway) handleInboxItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/inbox/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "item id is required")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		item, err := g.inbox.Get(r.Context(), id)
		if err != nil {
			writeInboxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInboxItemResponse(item))

	case action == "import" && r.Method == http.MethodPost:
		item, err := g.inbox.Import(r.Context(), id)
		if err != nil {
			writeInboxError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInboxItemResponse(item))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeInboxError(w http.ResponseWriter, err error) {
	if errors.Is(err, inbox.ErrNotFound) {
		writeError(w, http.StatusNotFound, "inbox item not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "inbox operation failed")
}

func toInboxItemResponse(item *inbox.Item) InboxItemResponse {
	return InboxItemResponse{
		ID:           item.ID,
		RawText:      item.RawText,
		SourceApp:    item.SourceApp,
		ReceivedAt:   item.ReceivedAt.Format(time.RFC3339),
		Status:       string(item.Status),
		Error:        item.Error,
		ParsedPlaces: item.ParsedPlaces,
	}
}

// handleEvents handles GET /api/events requests, streaming advisory
// update notifications as Server-Sent Events. Events are hints that
// cached data changed; a client that misses one just refreshes later.
func (g *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before the client sees the 200 so no update published
	// after connect is missed
	ctx := r.Context()
	suggestionsCh, _ := g.events.Subscribe(ctx, events.TopicSuggestionsUpdated)
	inboxCh, _ := g.events.Subscribe(ctx, events.TopicInboxUpdated)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, ok := <-suggestionsCh:
			if !ok {
				return
			}
			writeSSEEvent(w, flusher, e)
		case e, ok := <-inboxCh:
			if !ok {
				return
			}
			writeSSEEvent(w, flusher, e)
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, e events.Event) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Topic, data)
	flusher.Flush()
}
