package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

// Ingestor runs the document write path.
type Ingestor interface {
	Ingest(ctx context.Context, collectionName, filename string, content []byte) (documentID string, chunkCount int, err error)
}

type DocumentHandler struct {
	dbclient core.DbClient
	ingestor Ingestor
	provider core.ProviderKind
}

func NewDocumentHandler(dbclient core.DbClient, ingestor Ingestor, provider core.ProviderKind) *DocumentHandler {
	return &DocumentHandler{dbclient: dbclient, ingestor: ingestor, provider: provider}
}

const maxUploadBytes = 32 << 20

// Upload ingests a multipart file into the collection named by the
// Collection-Name header.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	collectionName := r.Header.Get("Collection-Name")
	if collectionName == "" {
		writeError(w, fmt.Errorf("%w: no Collection-Name provided in header", core.ErrInvalidInput))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: invalid multipart form", core.ErrInvalidInput))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file provided", core.ErrInvalidInput))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(content) > maxUploadBytes {
		writeError(w, fmt.Errorf("%w: file too large", core.ErrInvalidInput))
		return
	}

	docID, chunkCount, err := h.ingestor.Ingest(r.Context(), collectionName, header.Filename, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Document uploaded successfully",
		"document_id":    docID,
		"chunks_created": chunkCount,
	})
}

// UploadText ingests a raw text body; the document and collection names come
// from headers.
func (h *DocumentHandler) UploadText(w http.ResponseWriter, r *http.Request) {
	collectionName := r.Header.Get("Collection-Name")
	if collectionName == "" {
		writeError(w, fmt.Errorf("%w: no Collection-Name provided in header", core.ErrInvalidInput))
		return
	}
	documentName := r.Header.Get("Document-Name")
	if documentName == "" {
		writeError(w, fmt.Errorf("%w: no Document-Name provided in header", core.ErrInvalidInput))
		return
	}

	content, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %w", err))
		return
	}

	docID, chunkCount, err := h.ingestor.Ingest(r.Context(), collectionName, documentName, content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Document uploaded successfully",
		"document_id":    docID,
		"chunks_created": chunkCount,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	documents, err := h.dbclient.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if documents == nil {
		documents = []models.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, documents)
}

type chunkPreview struct {
	ChunkNumber      int       `json:"chunk_number"`
	ChunkStart       string    `json:"chunk_start"`
	ChunkEnd         string    `json:"chunk_end"`
	EmbeddingPreview []float32 `json:"embedding_preview"`
}

// Chunks returns a preview of a document's stored chunks: position, leading
// and trailing 50 characters, and the first five embedding values. The active
// provider's table is read first, falling back to the other representation
// for documents ingested under the previous provider.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.dbclient.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		writeError(w, fmt.Errorf("%w: %s", core.ErrDocumentNotFound, id))
		return
	}

	chunks, err := h.dbclient.GetChunks(r.Context(), id, h.provider)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(chunks) == 0 {
		other := core.ProviderOllama
		if h.provider == core.ProviderOllama {
			other = core.ProviderOpenAI
		}
		if chunks, err = h.dbclient.GetChunks(r.Context(), id, other); err != nil {
			writeError(w, err)
			return
		}
	}

	previews := make([]chunkPreview, len(chunks))
	for i, ch := range chunks {
		previews[i] = chunkPreview{
			ChunkNumber:      ch.ChunkIndex,
			ChunkStart:       headRunes(ch.Content, 50),
			ChunkEnd:         tailRunes(ch.Content, 50),
			EmbeddingPreview: headFloats(ch.Embedding, 5),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"chunks":      previews,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.dbclient.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func headFloats(v []float32, n int) []float32 {
	if len(v) <= n {
		return v
	}
	return v[:n]
}
