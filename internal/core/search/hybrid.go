package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

// MaxResults caps the merged result set.
const MaxResults = 5

// Store is the slice of the storage gateway the search engine needs.
type Store interface {
	ExactTextCandidates(ctx context.Context, provider core.ProviderKind, collection, query string) ([]models.SearchResult, error)
	VectorCandidates(ctx context.Context, provider core.ProviderKind, collection string, queryVec []float32, limit int) ([]models.SearchResult, error)
}

// Engine merges exact whole-word matches with nearest-neighbor vector matches
// into one ranked result set. Exact matches are pinned at distance 0.0.
type Engine struct {
	store    Store
	embedder core.EmbeddingProvider
}

func NewEngine(store Store, embedder core.EmbeddingProvider) *Engine {
	return &Engine{store: store, embedder: embedder}
}

// Search runs a hybrid query scoped to one collection name, or to all
// collections when collection is core.AllCollections.
//
// A failed query embedding degrades ranking (the zero vector still yields a
// candidate ordering) instead of failing the request.
func (e *Engine) Search(ctx context.Context, query, collection string) ([]models.SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, core.ErrInvalidQuery
	}
	if collection == "" {
		collection = core.AllCollections
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		if !errors.Is(err, core.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		log.Printf("search: query embedding degraded to zero vector: %v", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors, want 1", len(vectors))
	}
	queryVec := vectors[0]

	var exact, vector []models.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.store.ExactTextCandidates(gctx, e.embedder.Kind(), collection, query)
		if err != nil {
			return fmt.Errorf("exact candidates: %w", err)
		}
		exact = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.store.VectorCandidates(gctx, e.embedder.Kind(), collection, queryVec, MaxResults)
		if err != nil {
			return fmt.Errorf("vector candidates: %w", err)
		}
		vector = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(exact, vector), nil
}

type chunkKey struct {
	filename   string
	collection string
	index      int
}

// merge unions the candidate sets. A chunk appearing in both keeps the exact
// row (distance 0.0). The stable sort keeps exact matches at or above vector
// matches of equal distance. The merged set is capped at MaxResults.
func merge(exact, vector []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(exact)+len(vector))
	seen := make(map[chunkKey]bool, len(exact))

	for _, r := range exact {
		r.Distance = 0.0
		k := chunkKey{r.DocumentFilename, r.CollectionName, r.ChunkIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	for _, r := range vector {
		k := chunkKey{r.DocumentFilename, r.CollectionName, r.ChunkIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}
