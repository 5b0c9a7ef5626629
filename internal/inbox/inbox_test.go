// ABOUTME: Tests for the deduplicating inbox service.
// ABOUTME: Covers idempotent admission, parse lifecycle, and import.

package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelist/suggest-gateway/internal/events"
	"github.com/travelist/suggest-gateway/internal/kv"
)

// stubParser returns fixed places or a fixed error.
type stubParser struct {
	places []ParsedPlace
	err    error
}

func (p *stubParser) Parse(_ context.Context, _ string) ([]ParsedPlace, error) {
	return p.places, p.err
}

func newTestService(t *testing.T, primary, fallback Parser) *Service {
	t.Helper()
	if fallback == nil {
		fallback = NewHeuristicParser()
	}
	s, err := NewService(kv.NewMemory(), primary, fallback, nil, nil)
	require.NoError(t, err)
	return s
}

func TestAdmit_IdempotentOnIdenticalText(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx := context.Background()

	first, created, err := s.Admit(ctx, "Le Comptoir du Relais", "maps")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := s.Admit(ctx, "Le Comptoir du Relais", "maps")
	require.NoError(t, err)
	assert.False(t, created, "identical text must not create a second item")
	assert.Equal(t, first.ID, second.ID)

	s.Wait()
	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAdmit_DuplicateDetectedAfterImport(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx := context.Background()

	item, _, err := s.Admit(ctx, "Sagrada Familia", "browser")
	require.NoError(t, err)
	s.Wait()

	_, err = s.Import(ctx, item.ID)
	require.NoError(t, err)

	again, created, err := s.Admit(ctx, "Sagrada Familia", "browser")
	require.NoError(t, err)
	assert.False(t, created, "imported items still deduplicate redelivered text")
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, StatusImported, again.Status)
}

func TestAdmit_RejectsWhitespaceOnlyText(t *testing.T) {
	s := newTestService(t, nil, nil)

	_, _, err := s.Admit(context.Background(), "   \n\t ", "maps")
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestAdmit_IndexSurvivesRestart(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()

	s1, err := NewService(store, nil, NewHeuristicParser(), nil, nil)
	require.NoError(t, err)
	item, created, err := s1.Admit(ctx, "Park Güell", "notes")
	require.NoError(t, err)
	require.True(t, created)
	s1.Wait()

	// A fresh service over the same store rebuilds the index
	s2, err := NewService(store, nil, NewHeuristicParser(), nil, nil)
	require.NoError(t, err)
	again, created, err := s2.Admit(ctx, "Park Güell", "notes")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)
}

func TestParse_PrimarySuccessYieldsDraft(t *testing.T) {
	primary := &stubParser{places: []ParsedPlace{{Name: "Louvre", Category: "museum"}}}
	s := newTestService(t, primary, nil)

	item, _, err := s.Admit(context.Background(), "check out the Louvre!", "messages")
	require.NoError(t, err)
	s.Wait()

	got, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraftReady, got.Status)
	require.Len(t, got.ParsedPlaces, 1)
	assert.Equal(t, "Louvre", got.ParsedPlaces[0].Name)
	assert.Empty(t, got.Error)
}

func TestParse_FallbackAfterPrimaryFailure(t *testing.T) {
	primary := &stubParser{err: errors.New("extraction service unavailable")}
	s := newTestService(t, primary, nil)

	item, _, err := s.Admit(context.Background(), "Musée d'Orsay", "maps")
	require.NoError(t, err)
	s.Wait()

	got, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraftReady, got.Status, "heuristic fallback should still produce a draft")
	require.NotEmpty(t, got.ParsedPlaces)
	assert.Equal(t, "Musée d'Orsay", got.ParsedPlaces[0].Name)
}

func TestParse_NothingRecognizedNeedsInfo(t *testing.T) {
	primary := &stubParser{err: errors.New("unavailable")}
	fallback := &stubParser{places: nil}
	s := newTestService(t, primary, fallback)

	item, _, err := s.Admit(context.Background(), "asdf qwerty", "messages")
	require.NoError(t, err)
	s.Wait()

	got, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsInfo, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Empty(t, got.ParsedPlaces, "failed parse leaves no draft places")
}

func TestParse_FallbackErrorRecordedOnItem(t *testing.T) {
	primary := &stubParser{err: errors.New("unavailable")}
	fallback := &stubParser{err: errors.New("fallback broke")}
	s := newTestService(t, primary, fallback)

	item, _, err := s.Admit(context.Background(), "somewhere nice", "maps")
	require.NoError(t, err)
	s.Wait()

	got, err := s.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsInfo, got.Status)
	assert.Contains(t, got.Error, "fallback broke")
}

func TestImport(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx := context.Background()

	item, _, err := s.Admit(ctx, "Tibidabo", "maps")
	require.NoError(t, err)
	s.Wait()

	imported, err := s.Import(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusImported, imported.Status)

	_, err = s.Import(ctx, "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}

// gateParser signals when parsing starts and blocks until released, so
// tests can interleave other calls with an in-flight parse.
type gateParser struct {
	started chan struct{}
	release chan struct{}
	places  []ParsedPlace
}

func (p *gateParser) Parse(_ context.Context, _ string) ([]ParsedPlace, error) {
	close(p.started)
	<-p.release
	return p.places, nil
}

func TestImport_DuringParseIsNotOverwritten(t *testing.T) {
	primary := &gateParser{
		started: make(chan struct{}),
		release: make(chan struct{}),
		places:  []ParsedPlace{{Name: "Louvre", Category: "museum"}},
	}
	s := newTestService(t, primary, nil)
	ctx := context.Background()

	item, _, err := s.Admit(ctx, "the Louvre is a must", "messages")
	require.NoError(t, err)

	// Parser is mid-flight; the item sits in processing
	<-primary.started
	_, err = s.Import(ctx, item.ID)
	require.NoError(t, err)

	close(primary.release)
	s.Wait()

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusImported, got.Status, "parse outcome must not overwrite an import")
	assert.Empty(t, got.ParsedPlaces)
}

func TestAdmit_PublishesInboxEvents(t *testing.T) {
	ev := events.NewBroadcaster(nil)
	defer ev.Close()
	s, err := NewService(kv.NewMemory(), nil, NewHeuristicParser(), ev, nil)
	require.NoError(t, err)

	ch, _ := ev.Subscribe(context.Background(), events.TopicInboxUpdated)

	item, _, err := s.Admit(context.Background(), "Camp Nou", "browser")
	require.NoError(t, err)
	s.Wait()

	e := <-ch
	assert.Equal(t, item.ID, e.Data["id"])
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx := context.Background()

	_, _, err := s.Admit(ctx, "first place", "maps")
	require.NoError(t, err)
	second, _, err := s.Admit(ctx, "second place", "maps")
	require.NoError(t, err)
	s.Wait()

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
}
