package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nmorrow/covmap/internal/model"
	"github.com/nmorrow/covmap/internal/store"
)

type stubProvider struct {
	err   error
	calls int
}

func (s *stubProvider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1}, s.err
}

func (s *stubProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (s *stubProvider) Dimensions() int { return 2 }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIndexer_EmbedsOnlyMissing(t *testing.T) {
	m := store.NewMemory()
	m.Load(nil, nil, []model.Provision{
		{ID: "v1", PolicyID: "p1", Text: "first"},
		{ID: "v2", PolicyID: "p1", Text: "second", Embedding: []float32{9, 9}},
		{ID: "v3", PolicyID: "p2", Text: "third"},
	}, nil)

	ix := New(m, &stubProvider{}, "org-1", discardLogger())
	n, err := ix.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 provisions indexed, got %d", n)
	}

	missing, _ := m.ProvisionsWithoutEmbedding(context.Background())
	if len(missing) != 0 {
		t.Errorf("Expected all provisions embedded, %d left", len(missing))
	}

	events := m.AuditEvents()
	if len(events) != 1 || events[0].EventType != "indexing" {
		t.Errorf("Expected one indexing audit event, got %+v", events)
	}
}

func TestIndexer_NothingToDo(t *testing.T) {
	m := store.NewMemory()
	provider := &stubProvider{}

	ix := New(m, provider, "org-1", discardLogger())
	n, err := ix.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 indexed, got %d", n)
	}
	if provider.calls != 0 {
		t.Errorf("Expected embedder untouched, got %d calls", provider.calls)
	}
	if len(m.AuditEvents()) != 0 {
		t.Error("Expected no audit event for an empty run")
	}
}

func TestIndexer_StopsOnEmbedFailure(t *testing.T) {
	m := store.NewMemory()
	m.Load(nil, nil, []model.Provision{
		{ID: "v1", PolicyID: "p1", Text: "first"},
	}, nil)

	ix := New(m, &stubProvider{err: errors.New("quota exceeded")}, "org-1", discardLogger())
	if _, err := ix.Run(context.Background()); err == nil {
		t.Fatal("Expected error to propagate")
	}

	missing, _ := m.ProvisionsWithoutEmbedding(context.Background())
	if len(missing) != 1 {
		t.Errorf("Expected provision left unembedded, got %d missing", len(missing))
	}
}
