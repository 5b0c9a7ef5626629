// ABOUTME: Inbox item types and the deduplicating admission service.
// ABOUTME: Items persist in the kv store; raw-text index guards admission.

package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/travelist/suggest-gateway/internal/events"
	"github.com/travelist/suggest-gateway/internal/kv"
)

// storePrefix namespaces inbox items in the shared kv store.
const storePrefix = "inbox:"

// Admission and lookup errors.
var (
	ErrEmptyText = errors.New("raw text is empty")
	ErrNotFound  = errors.New("inbox item not found")
)

// Status is the lifecycle state of an inbox item.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusNeedsInfo  Status = "needs_info"
	StatusDraftReady Status = "draft_ready"
	StatusImported   Status = "imported"
	StatusFailed     Status = "failed"
)

// ParsedPlace is one place extracted from shared text.
type ParsedPlace struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Item is one shared snippet moving through the inbox.
type Item struct {
	ID           string        `json:"id"`
	RawText      string        `json:"raw_text"`
	SourceApp    string        `json:"source_app,omitempty"`
	ReceivedAt   time.Time     `json:"received_at"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
	ParsedPlaces []ParsedPlace `json:"parsed_places,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Service is the deduplicating inbox. Only the service mutates items;
// admission is serialized on the raw-text index, and every read-modify-
// write of a stored item happens under mu so a detached parse and an
// import cannot clobber each other.
type Service struct {
	store    kv.Store
	primary  Parser
	fallback Parser
	events   *events.Broadcaster
	logger   *slog.Logger

	// mu guards byText and serializes item writes.
	mu     sync.Mutex
	byText map[string]string // rawText -> item ID

	// parses tracks detached parse tasks so tests and shutdown can wait.
	parses sync.WaitGroup
}

// NewService creates the inbox service, rebuilding the raw-text index
// from the durable store. The fallback parser must be local; primary may
// be nil to skip straight to the fallback.
func NewService(store kv.Store, primary, fallback Parser, ev *events.Broadcaster, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		primary:  primary,
		fallback: fallback,
		events:   ev,
		logger:   logger.With("component", "inbox"),
		byText:   make(map[string]string),
	}

	entries, err := store.List(context.Background(), storePrefix)
	if err != nil {
		return nil, fmt.Errorf("loading inbox index: %w", err)
	}
	for key, raw := range entries {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("skipping undecodable inbox entry", "key", key, "error", err)
			continue
		}
		s.byText[item.RawText] = item.ID
	}

	s.logger.Info("inbox index loaded", "items", len(s.byText))
	return s, nil
}

// Admit records a shared snippet, returning the stored item and whether
// it was newly created. Redelivered text returns the existing item with
// created=false. Duplicates are detected regardless of status, because
// the delivery channel may resend items across polling cycles until its
// outbox is cleared. A genuinely new item is persisted and handed to a
// detached parse task.
func (s *Service) Admit(ctx context.Context, rawText, sourceApp string) (*Item, bool, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, false, ErrEmptyText
	}

	s.mu.Lock()
	if id, ok := s.byText[rawText]; ok {
		s.mu.Unlock()
		item, err := s.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return item, false, nil
	}

	item := &Item{
		ID:         uuid.New().String(),
		RawText:    rawText,
		SourceApp:  sourceApp,
		ReceivedAt: time.Now().UTC(),
		Status:     StatusNew,
		UpdatedAt:  time.Now().UTC(),
	}
	s.byText[rawText] = item.ID
	s.mu.Unlock()

	if err := s.save(ctx, item); err != nil {
		s.mu.Lock()
		delete(s.byText, rawText)
		s.mu.Unlock()
		return nil, false, err
	}

	s.logger.Info("inbox item admitted", "id", item.ID, "source", sourceApp)
	s.publish(item.ID)

	// Detached parse: runs to completion on its own context whether or
	// not the caller sticks around.
	s.parses.Add(1)
	go s.parse(item.ID)

	return item, true, nil
}

// Get returns one item by ID.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	raw, ok, err := s.store.Get(ctx, storePrefix+id)
	if err != nil {
		return nil, fmt.Errorf("reading inbox item: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decoding inbox item: %w", err)
	}
	return &item, nil
}

// List returns all items, newest first.
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	entries, err := s.store.List(ctx, storePrefix)
	if err != nil {
		return nil, fmt.Errorf("listing inbox items: %w", err)
	}

	items := make([]*Item, 0, len(entries))
	for key, raw := range entries {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("skipping undecodable inbox entry", "key", key, "error", err)
			continue
		}
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ReceivedAt.After(items[j].ReceivedAt)
	})
	return items, nil
}

// Import marks an item as committed downstream. Imported items stay in
// the store so redelivered text still deduplicates against them.
func (s *Service) Import(ctx context.Context, id string) (*Item, error) {
	s.mu.Lock()
	item, err := s.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	item.Status = StatusImported
	item.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, item); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.publish(id)
	return item, nil
}

// Wait blocks until all detached parse tasks have finished.
func (s *Service) Wait() {
	s.parses.Wait()
}

// parse runs the primary-then-fallback extraction for a newly admitted
// item. Failures are recorded on the item, never returned: every admitted
// item remains visible to the user even when automated parsing fails.
func (s *Service) parse(id string) {
	defer s.parses.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	item, err := s.Get(ctx, id)
	if err != nil {
		s.logger.Warn("parse target vanished", "id", id, "error", err)
		return
	}

	item.Status = StatusProcessing
	item.UpdatedAt = time.Now().UTC()
	stored, err := s.saveUnlessImported(ctx, item)
	if err != nil {
		s.logger.Warn("persisting processing status failed", "id", id, "error", err)
	} else if !stored {
		s.logger.Debug("skipping parse, item already imported", "id", id)
		return
	}
	s.publish(id)

	places, parseErr := s.runParsers(ctx, item.RawText)
	switch {
	case parseErr != nil:
		item.Status = StatusNeedsInfo
		item.Error = parseErr.Error()
	case len(places) == 0:
		item.Status = StatusNeedsInfo
		item.Error = "no places recognized in shared text"
	default:
		item.Status = StatusDraftReady
		item.Error = ""
		item.ParsedPlaces = places
	}
	item.UpdatedAt = time.Now().UTC()

	stored, err = s.saveUnlessImported(ctx, item)
	if err != nil {
		s.logger.Warn("persisting parse outcome failed", "id", id, "error", err)
		return
	}
	if !stored {
		s.logger.Debug("discarding parse outcome, item already imported", "id", id)
		return
	}
	s.logger.Info("inbox item parsed", "id", id, "status", item.Status, "places", len(places))
	s.publish(id)
}

// saveUnlessImported persists a parse transition under the service lock,
// re-reading the stored item first. Import is the terminal state and
// always wins over a detached parse outcome, so an already imported item
// is left untouched and false is returned.
func (s *Service) saveUnlessImported(ctx context.Context, item *Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx, item.ID)
	if err != nil {
		return false, err
	}
	if current.Status == StatusImported {
		return false, nil
	}
	return true, s.save(ctx, item)
}

// runParsers tries the primary parser, then the fallback.
func (s *Service) runParsers(ctx context.Context, rawText string) ([]ParsedPlace, error) {
	if s.primary != nil {
		places, err := s.primary.Parse(ctx, rawText)
		if err == nil {
			return places, nil
		}
		s.logger.Warn("primary parser failed, using fallback", "error", err)
	}
	return s.fallback.Parse(ctx, rawText)
}

func (s *Service) save(ctx context.Context, item *Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding inbox item: %w", err)
	}
	if err := s.store.Put(ctx, storePrefix+item.ID, raw); err != nil {
		return fmt.Errorf("writing inbox item: %w", err)
	}
	return nil
}

func (s *Service) publish(id string) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{
		Topic: events.TopicInboxUpdated,
		Data:  map[string]string{"id": id},
	})
}
