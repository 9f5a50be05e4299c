package core

import "errors"

// Failure taxonomy for the ingestion and search paths. Handlers map these to
// HTTP statuses with errors.Is; everything else is treated as an internal
// infrastructure failure.
var (
	// ErrInvalidInput covers user-correctable request problems: unsupported
	// file types, missing required fields, malformed payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery is raised for an empty search query after trimming.
	ErrInvalidQuery = errors.New("query text is required")

	ErrCollectionNotFound = errors.New("collection not found")
	ErrDocumentNotFound   = errors.New("document not found")

	// ErrEmptyDocument means chunking produced zero non-empty chunks.
	// Ingesting nothing is a failure, not an empty success.
	ErrEmptyDocument = errors.New("no text could be extracted from document")

	// ErrUnreadableDocument means the document bytes could not be parsed at
	// all (e.g. malformed PDF).
	ErrUnreadableDocument = errors.New("document could not be read")

	// ErrEncoding means a declared-text file is not valid UTF-8.
	ErrEncoding = errors.New("invalid text file encoding, expected UTF-8")

	// ErrEmbeddingUnavailable is escalated only when every text in a batch
	// failed to embed. Individual failures are absorbed as zero vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedProvider means configuration names an embedding provider
	// with no implementation.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
)
