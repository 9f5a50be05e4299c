package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

type fakeStore struct {
	collections map[string]string            // name -> id
	documents   map[string]string            // collectionID/filename -> doc id
	chunks      map[string][]models.ChunkInsert // doc id -> last inserted set
	replaces    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: map[string]string{"Default": "col-1"},
		documents:   map[string]string{},
		chunks:      map[string][]models.ChunkInsert{},
	}
}

func (f *fakeStore) FindCollection(_ context.Context, name string) (*models.Collection, error) {
	id, ok := f.collections[name]
	if !ok {
		return nil, nil
	}
	return &models.Collection{ID: id, Name: name}, nil
}

func (f *fakeStore) ReplaceDocumentChunks(_ context.Context, collectionID, filename string, _ core.ProviderKind, chunks []models.ChunkInsert) (string, error) {
	f.replaces++
	key := collectionID + "/" + filename
	id, ok := f.documents[key]
	if !ok {
		id = fmt.Sprintf("doc-%d", len(f.documents)+1)
		f.documents[key] = id
	}
	f.chunks[id] = chunks
	return id, nil
}

type fakeEmbedder struct {
	dim  int
	fail bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(i + 1)
	}
	if f.fail {
		return out, fmt.Errorf("%w: all calls failed", core.ErrEmbeddingUnavailable)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int          { return f.dim }
func (f *fakeEmbedder) Kind() core.ProviderKind { return core.ProviderOllama }

func newTestPipeline(store *fakeStore, emb *fakeEmbedder) *Pipeline {
	return NewPipeline(store, emb, nil, "", 1000, 200)
}

func TestIngestStoresOrderedChunks(t *testing.T) {
	store := newFakeStore()
	p := NewPipeline(store, &fakeEmbedder{dim: 4}, nil, "", 10, 0)

	docID, count, err := p.Ingest(context.Background(), "Default", "notes.txt", []byte("alpha beta gamma delta epsilon"))
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if count < 2 {
		t.Fatalf("expected multiple chunks for a small chunk size, got %d", count)
	}
	chunks := store.chunks[docID]
	if len(chunks) != count {
		t.Fatalf("stored %d chunks, reported %d", len(chunks), count)
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d has index %d; indexes must be contiguous from 0", i, ch.ChunkIndex)
		}
		if ch.PageNumber != 1 {
			t.Errorf("chunk %d page = %d, want 1 for text", i, ch.PageNumber)
		}
		if len(ch.Embedding) != 4 {
			t.Errorf("chunk %d embedding dimension = %d, want 4", i, len(ch.Embedding))
		}
		if ch.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
	}
}

func TestIngestReplaceReusesDocumentID(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{dim: 4})

	first, firstCount, err := p.Ingest(context.Background(), "Default", "doc.txt", []byte("original content here"))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, secondCount, err := p.Ingest(context.Background(), "Default", "doc.txt", []byte("replaced"))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first != second {
		t.Fatalf("re-upload created a new document id: %s vs %s", first, second)
	}
	if got := len(store.chunks[second]); got != secondCount {
		t.Fatalf("stored chunk count = %d, want %d (the second ingestion only, not cumulative)", got, secondCount)
	}
	_ = firstCount
}

func TestIngestEmptyDocument(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{dim: 4})

	_, _, err := p.Ingest(context.Background(), "Default", "blank.txt", []byte("   \n\t  "))
	if !errors.Is(err, core.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument", err)
	}
	_, _, err = p.Ingest(context.Background(), "Default", "zero.txt", []byte{})
	if !errors.Is(err, core.ErrEmptyDocument) {
		t.Fatalf("got %v, want ErrEmptyDocument for zero-byte file", err)
	}
	if store.replaces != 0 {
		t.Fatalf("failed ingestions must not touch storage")
	}
}

func TestIngestCollectionNotFound(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{dim: 4})

	_, _, err := p.Ingest(context.Background(), "nope", "doc.txt", []byte("some text"))
	if !errors.Is(err, core.ErrCollectionNotFound) {
		t.Fatalf("got %v, want ErrCollectionNotFound", err)
	}
	if store.replaces != 0 {
		t.Fatalf("missing collection must abort before any mutation")
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{dim: 4})

	_, _, err := p.Ingest(context.Background(), "Default", "sheet.csv", []byte("a,b,c"))
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestIngestFullyFailedEmbeddingAborts(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeEmbedder{dim: 4, fail: true})

	_, _, err := p.Ingest(context.Background(), "Default", "doc.txt", []byte("some text"))
	if !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Fatalf("got %v, want ErrEmbeddingUnavailable", err)
	}
	if store.replaces != 0 {
		t.Fatalf("a fully failed embedding batch must not persist chunks")
	}
}
