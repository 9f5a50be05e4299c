package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

// Searcher runs the hybrid read path.
type Searcher interface {
	Search(ctx context.Context, query, collection string) ([]models.SearchResult, error)
}

type SearchHandler struct {
	engine Searcher
}

func NewSearchHandler(engine Searcher) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type queryRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection"`
}

// Query returns up to five hybrid-search results ordered by ascending
// distance. Collection "-" searches every collection; an omitted collection
// defaults to "Default".
func (h *SearchHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", core.ErrInvalidInput))
		return
	}
	if req.Collection == "" {
		req.Collection = "Default"
	}

	results, err := h.engine.Search(r.Context(), req.Query, req.Collection)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
