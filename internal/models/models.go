package models

import (
	"time"
)

// Collection is a named grouping of documents, the unit of deletion and
// search scoping.
type Collection struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Document represents one uploaded file inside a collection. The pair
// (Filename, CollectionID) is unique; re-uploading the same filename into the
// same collection replaces the chunks under the same document id.
type Document struct {
	ID           string    `db:"id" json:"id"`
	Filename     string    `db:"filename" json:"filename"`
	CollectionID string    `db:"collection_id" json:"collection_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DocumentInfo is the listing shape: a document joined with its collection
// name and the chunk count of whichever provider representation is populated.
type DocumentInfo struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	CollectionID   string `json:"collection_id"`
	CollectionName string `json:"collection_name"`
	ChunkCount     int    `json:"chunk_count"`
}

// Chunk is one stored text span with its embedding and page provenance.
type Chunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"content_vector" json:"content_vector"`
	ChunkIndex int       `db:"chunk_index" json:"chunk_index"`
	PageNumber int       `db:"page_number" json:"page_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChunkInsert carries one chunk row into the storage gateway during
// ingestion, before ids and timestamps exist.
type ChunkInsert struct {
	Content    string
	Embedding  []float32
	ChunkIndex int
	PageNumber int
}

// SearchResult is one ranked hybrid-search row. Distance 0.0 marks an exact
// text match; vector matches carry their L2 distance to the query vector.
type SearchResult struct {
	ChunkContent     string  `json:"chunk_content"`
	DocumentFilename string  `json:"document_filename"`
	CollectionName   string  `json:"collection_name"`
	Distance         float64 `json:"distance"`
	ChunkIndex       int     `json:"chunk_number"`
}
