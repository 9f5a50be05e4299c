package core

import (
	"context"

	"github.com/ragstack/ragserve/internal/models"
)

// ProviderKind identifies the active embedding provider. The set is closed:
// each kind is bound to its own chunk table and vector width.
type ProviderKind string

const (
	ProviderOllama ProviderKind = "ollama"
	ProviderOpenAI ProviderKind = "openai"
)

// AllCollections is the scope sentinel meaning "search every collection".
const AllCollections = "-"

// DbClient defines all persistence operations the handlers and engines need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
// Lookup methods return (nil, nil) when the row is absent.
type DbClient interface {
	ListCollections(ctx context.Context) ([]models.Collection, error)
	CreateCollection(ctx context.Context, name string) (*models.Collection, error)
	FindCollection(ctx context.Context, name string) (*models.Collection, error)
	DeleteCollection(ctx context.Context, name string) error

	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	GetChunks(ctx context.Context, documentID string, provider ProviderKind) ([]models.Chunk, error)

	// ReplaceDocumentChunks upserts the document row for (filename,
	// collectionID), drops any existing chunks in both provider
	// representations, and inserts the given chunk set — all in one
	// transaction. It returns the (possibly pre-existing) document id.
	ReplaceDocumentChunks(ctx context.Context, collectionID, filename string, provider ProviderKind, chunks []models.ChunkInsert) (string, error)

	// ExactTextCandidates returns chunks whose content contains query as a
	// whole-word, case-insensitive match, scoped to a collection name or
	// AllCollections. Rows come back with Distance 0.
	ExactTextCandidates(ctx context.Context, provider ProviderKind, collection, query string) ([]models.SearchResult, error)

	// VectorCandidates returns up to limit chunks ordered by ascending L2
	// distance between content_vector and queryVec.
	VectorCandidates(ctx context.Context, provider ProviderKind, collection string, queryVec []float32, limit int) ([]models.SearchResult, error)

	Close() error
}

// EmbeddingProvider converts texts into fixed-dimension vectors. The result
// always has the same length and order as the input; texts that failed to
// embed come back as zero vectors of Dimension() width. The returned error is
// ErrEmbeddingUnavailable only when every text in the batch failed.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Kind() ProviderKind
}

// ObjectStore archives raw upload bytes in object storage (S3 or compatible).
type ObjectStore interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
}

// LLMProvider generates an answer from a system prompt and a user prompt.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
