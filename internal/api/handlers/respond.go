package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ragstack/ragserve/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

// writeError maps the failure taxonomy onto HTTP statuses. Unknown errors are
// logged server-side and reported as a generic internal error so storage
// details never leak.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidQuery),
		errors.Is(err, core.ErrEmptyDocument),
		errors.Is(err, core.ErrUnreadableDocument),
		errors.Is(err, core.ErrEncoding):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrCollectionNotFound),
		errors.Is(err, core.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrEmbeddingUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrUnsupportedProvider):
		status = http.StatusInternalServerError
	default:
		log.Printf("api: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
