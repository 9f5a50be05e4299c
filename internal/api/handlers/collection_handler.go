package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ragstack/ragserve/internal/core"
)

type CollectionHandler struct {
	dbclient core.DbClient
}

func NewCollectionHandler(dbclient core.DbClient) *CollectionHandler {
	return &CollectionHandler{dbclient: dbclient}
}

// List returns all collection names. When no collections exist yet the
// "Default" collection is created on the spot, so a fresh install always has
// somewhere to upload into.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.dbclient.ListCollections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if len(collections) == 0 {
		created, err := h.dbclient.CreateCollection(r.Context(), "Default")
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []string{created.Name})
		return
	}

	names := make([]string, len(collections))
	for i, c := range collections {
		names[i] = c.Name
	}
	writeJSON(w, http.StatusOK, names)
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", core.ErrInvalidInput))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, fmt.Errorf("%w: collection name is required", core.ErrInvalidInput))
		return
	}

	if _, err := h.dbclient.CreateCollection(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Collection '%s' created successfully", req.Name),
	})
}

// Delete cascades to the collection's documents and chunks.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.dbclient.DeleteCollection(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Collection '%s' and its documents deleted successfully", name),
	})
}
