package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

type fakeStore struct {
	exact  []models.SearchResult
	vector []models.SearchResult

	gotQuery      string
	gotCollection string
	gotVec        []float32
}

func (f *fakeStore) ExactTextCandidates(_ context.Context, _ core.ProviderKind, collection, query string) ([]models.SearchResult, error) {
	f.gotQuery = query
	f.gotCollection = collection
	return f.exact, nil
}

func (f *fakeStore) VectorCandidates(_ context.Context, _ core.ProviderKind, _ string, queryVec []float32, limit int) ([]models.SearchResult, error) {
	f.gotVec = queryVec
	if len(f.vector) > limit {
		return f.vector[:limit], nil
	}
	return f.vector, nil
}

type fakeEmbedder struct {
	dim  int
	fail bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		if !f.fail {
			out[i][0] = 1
		}
	}
	if f.fail {
		return out, fmt.Errorf("%w: all calls failed", core.ErrEmbeddingUnavailable)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int          { return f.dim }
func (f *fakeEmbedder) Kind() core.ProviderKind { return core.ProviderOllama }

func result(filename string, index int, distance float64) models.SearchResult {
	return models.SearchResult{
		ChunkContent:     fmt.Sprintf("content %s/%d", filename, index),
		DocumentFilename: filename,
		CollectionName:   "Default",
		Distance:         distance,
		ChunkIndex:       index,
	}
}

func TestSearchExactMatchesRankFirst(t *testing.T) {
	store := &fakeStore{
		exact: []models.SearchResult{result("a.txt", 0, 0)},
		vector: []models.SearchResult{
			result("b.txt", 1, 0.31),
			result("b.txt", 2, 0.12),
		},
	}
	e := NewEngine(store, &fakeEmbedder{dim: 3})

	results, err := e.Search(context.Background(), "query", "Default")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Distance != 0 || results[0].DocumentFilename != "a.txt" {
		t.Errorf("exact match not first: %+v", results[0])
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not sorted by distance: %v then %v", results[i-1].Distance, results[i].Distance)
		}
	}
}

func TestSearchDeduplicatesKeepingExactRow(t *testing.T) {
	store := &fakeStore{
		exact:  []models.SearchResult{result("a.txt", 0, 0)},
		vector: []models.SearchResult{result("a.txt", 0, 0.42)},
	}
	e := NewEngine(store, &fakeEmbedder{dim: 3})

	results, err := e.Search(context.Background(), "query", "Default")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 after dedup", len(results))
	}
	if results[0].Distance != 0 {
		t.Errorf("the exact row (distance 0) must survive dedup, got distance %v", results[0].Distance)
	}
}

func TestSearchCapsMergedResults(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 4; i++ {
		store.exact = append(store.exact, result("exact.txt", i, 0))
	}
	for i := 0; i < 5; i++ {
		store.vector = append(store.vector, result("vector.txt", i, 0.1*float64(i+1)))
	}
	e := NewEngine(store, &fakeEmbedder{dim: 3})

	results, err := e.Search(context.Background(), "query", "Default")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != MaxResults {
		t.Fatalf("got %d results, want cap of %d", len(results), MaxResults)
	}
	// All four exact matches fit under the cap and outrank vector rows.
	for i := 0; i < 4; i++ {
		if results[i].Distance != 0 {
			t.Errorf("result %d distance = %v, want 0 (exact rows first)", i, results[i].Distance)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	e := NewEngine(&fakeStore{}, &fakeEmbedder{dim: 3})
	for _, q := range []string{"", "   \t "} {
		_, err := e.Search(context.Background(), q, "Default")
		if !errors.Is(err, core.ErrInvalidQuery) {
			t.Errorf("query %q: got %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestSearchNormalizesQueryAndScope(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(store, &fakeEmbedder{dim: 3})

	if _, err := e.Search(context.Background(), "  SoMe Query  ", ""); err != nil {
		t.Fatalf("search error: %v", err)
	}
	if store.gotQuery != "some query" {
		t.Errorf("store saw query %q, want trimmed lowercase", store.gotQuery)
	}
	if store.gotCollection != core.AllCollections {
		t.Errorf("empty scope should widen to %q, got %q", core.AllCollections, store.gotCollection)
	}
}

func TestSearchDegradesWhenEmbeddingUnavailable(t *testing.T) {
	store := &fakeStore{
		exact: []models.SearchResult{result("a.txt", 0, 0)},
	}
	e := NewEngine(store, &fakeEmbedder{dim: 3, fail: true})

	results, err := e.Search(context.Background(), "query", "Default")
	if err != nil {
		t.Fatalf("an unavailable embedder must degrade, not fail: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want the exact match", len(results))
	}
	if len(store.gotVec) != 3 {
		t.Fatalf("vector branch still runs with the fallback vector, got %v", store.gotVec)
	}
	for i, v := range store.gotVec {
		if v != 0 {
			t.Errorf("fallback vector[%d] = %v, want 0", i, v)
		}
	}
}
