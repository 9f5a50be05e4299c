package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/core/chunker"
	"github.com/ragstack/ragserve/internal/models"
)

// Store is the slice of the storage gateway the pipeline needs.
type Store interface {
	FindCollection(ctx context.Context, name string) (*models.Collection, error)
	ReplaceDocumentChunks(ctx context.Context, collectionID, filename string, provider core.ProviderKind, chunks []models.ChunkInsert) (string, error)
}

// Pipeline orchestrates the write path: detect, chunk, resolve the
// collection, embed, and persist — with all storage mutation inside one
// transaction owned by the store.
type Pipeline struct {
	store    Store
	embedder core.EmbeddingProvider

	// archive, when non-nil, receives the raw upload bytes after a
	// successful commit. Failures there are logged and never surface.
	archive core.ObjectStore
	bucket  string

	chunkSize    int
	chunkOverlap int
}

func NewPipeline(store Store, embedder core.EmbeddingProvider, archive core.ObjectStore, bucket string, chunkSize, chunkOverlap int) *Pipeline {
	return &Pipeline{
		store:        store,
		embedder:     embedder,
		archive:      archive,
		bucket:       bucket,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest processes one uploaded file into chunk rows and returns the document
// id and the number of chunks created. Re-uploading the same filename into
// the same collection replaces its chunks under the same document id.
//
// Lookup and content failures abort before any mutation; a fully failed
// embedding batch aborts too. Individual embedding failures have already been
// absorbed as zero vectors by the provider.
func (p *Pipeline) Ingest(ctx context.Context, collectionName, filename string, content []byte) (string, int, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", 0, fmt.Errorf("%w: document name is required", core.ErrInvalidInput)
	}
	if collectionName == "" {
		return "", 0, fmt.Errorf("%w: collection name is required", core.ErrInvalidInput)
	}

	// Zero-byte uploads are not rejected here; they fall through the chunker
	// and fail as empty documents, the same as whitespace-only content.
	contentType, err := chunker.Detect(filename, content)
	if err != nil {
		return "", 0, err
	}

	pieces, err := chunker.Chunk(content, contentType, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return "", 0, err
	}
	log.Printf("ingest: %s split into %d chunks", filename, len(pieces))

	col, err := p.store.FindCollection(ctx, collectionName)
	if err != nil {
		return "", 0, err
	}
	if col == nil {
		return "", 0, fmt.Errorf("%w: %s", core.ErrCollectionNotFound, collectionName)
	}

	texts := make([]string, len(pieces))
	for i := range pieces {
		texts[i] = pieces[i].Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return "", 0, fmt.Errorf("embed %s: %w", filename, err)
	}
	if len(vectors) != len(pieces) {
		return "", 0, fmt.Errorf("embed %s: got %d vectors for %d chunks", filename, len(vectors), len(pieces))
	}

	chunks := make([]models.ChunkInsert, len(pieces))
	for i := range pieces {
		chunks[i] = models.ChunkInsert{
			Content:    pieces[i].Text,
			Embedding:  vectors[i],
			ChunkIndex: i,
			PageNumber: pieces[i].Page,
		}
	}

	docID, err := p.store.ReplaceDocumentChunks(ctx, col.ID, filename, p.embedder.Kind(), chunks)
	if err != nil {
		return "", 0, fmt.Errorf("persist %s: %w", filename, err)
	}

	if p.archive != nil && p.bucket != "" {
		key := fmt.Sprintf("%s/%s/%s", col.ID, docID, filename)
		if _, err := p.archive.UploadFile(ctx, p.bucket, key, content, archiveContentType(contentType)); err != nil {
			log.Printf("ingest: archive of %s failed (document %s kept): %v", filename, docID, err)
		}
	}

	return docID, len(chunks), nil
}

func archiveContentType(ct chunker.ContentType) string {
	if ct == chunker.ContentPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}
