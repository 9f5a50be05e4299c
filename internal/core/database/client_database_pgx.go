package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ragstack/ragserve/internal/config"
	"github.com/ragstack/ragserve/internal/core"
	"github.com/ragstack/ragserve/internal/models"
)

// DatabaseClient is the pgvector-backed storage gateway.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// chunkTable maps the active provider to its physical chunk table. Only these
// two names ever reach the SQL below.
func chunkTable(kind core.ProviderKind) string {
	if kind == core.ProviderOpenAI {
		return "chunks_openai"
	}
	return "chunks_ollama"
}

// Collections

func (c *DatabaseClient) ListCollections(ctx context.Context) ([]models.Collection, error) {
	const q = `SELECT id, name, created_at FROM collections ORDER BY name ASC`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Collection
	for rows.Next() {
		var col models.Collection
		if err := rows.Scan(&col.ID, &col.Name, &col.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateCollection(ctx context.Context, name string) (*models.Collection, error) {
	col := &models.Collection{ID: uuid.NewString(), Name: name}
	const q = `
		INSERT INTO collections (id, name)
		VALUES ($1, $2)
		RETURNING created_at
	`
	if err := c.db.QueryRowContext(ctx, q, col.ID, col.Name).Scan(&col.CreatedAt); err != nil {
		return nil, err
	}
	return col, nil
}

func (c *DatabaseClient) FindCollection(ctx context.Context, name string) (*models.Collection, error) {
	const q = `SELECT id, name, created_at FROM collections WHERE name = $1`
	var col models.Collection
	err := c.db.QueryRowContext(ctx, q, name).Scan(&col.ID, &col.Name, &col.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// DeleteCollection removes the collection, its documents, and chunks in both
// provider representations inside one transaction.
func (c *DatabaseClient) DeleteCollection(ctx context.Context, name string) error {
	col, err := c.FindCollection(ctx, name)
	if err != nil {
		return err
	}
	if col == nil {
		return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"chunks_ollama", "chunks_openai"} {
		q := fmt.Sprintf(`
			DELETE FROM %s WHERE document_id IN (
				SELECT id FROM documents WHERE collection_id = $1
			)`, table)
		if _, err := tx.ExecContext(ctx, q, col.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection_id = $1`, col.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, col.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// Documents

func (c *DatabaseClient) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	const q = `
		SELECT d.id, d.filename, d.collection_id, COALESCE(col.name, 'Default'),
		       GREATEST(
		           (SELECT count(*) FROM chunks_ollama co WHERE co.document_id = d.id),
		           (SELECT count(*) FROM chunks_openai cp WHERE cp.document_id = d.id),
		           1
		       )
		FROM documents d
		LEFT JOIN collections col ON d.collection_id = col.id
		ORDER BY d.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentInfo
	for rows.Next() {
		var d models.DocumentInfo
		if err := rows.Scan(&d.ID, &d.Filename, &d.CollectionID, &d.CollectionName, &d.ChunkCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	const q = `SELECT id, filename, collection_id, created_at FROM documents WHERE id = $1`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Filename, &d.CollectionID, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDocument removes the document row and its chunks in both provider
// representations atomically.
func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"chunks_ollama", "chunks_openai"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrDocumentNotFound, id)
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetChunks(ctx context.Context, documentID string, provider core.ProviderKind) ([]models.Chunk, error) {
	q := fmt.Sprintf(`
		SELECT id, document_id, content, content_vector, chunk_index, page_number, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`, chunkTable(provider))
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var (
			ch  models.Chunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Content, &emb, &ch.ChunkIndex, &ch.PageNumber, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// ReplaceDocumentChunks implements the replace-on-reupload policy: the
// document row is reused when (filename, collectionID) already exists, old
// chunks are dropped from both representations, and the new set is inserted —
// all inside one transaction so no partial chunk set is ever visible.
func (c *DatabaseClient) ReplaceDocumentChunks(ctx context.Context, collectionID, filename string, provider core.ProviderKind, chunks []models.ChunkInsert) (string, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var docID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE filename = $1 AND collection_id = $2`,
		filename, collectionID,
	).Scan(&docID)
	switch {
	case err == sql.ErrNoRows:
		docID = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, filename, collection_id) VALUES ($1, $2, $3)`,
			docID, filename, collectionID,
		); err != nil {
			return "", fmt.Errorf("insert document: %w", err)
		}
	case err != nil:
		return "", err
	default:
		for _, table := range []string{"chunks_ollama", "chunks_openai"} {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, table), docID); err != nil {
				return "", fmt.Errorf("delete old chunks: %w", err)
			}
		}
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content, content_vector, chunk_index, page_number)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, chunkTable(provider))
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), docID, ch.Content, vec, ch.ChunkIndex, ch.PageNumber,
		); err != nil {
			return "", fmt.Errorf("insert chunk %d: %w", ch.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return docID, nil
}

// Search candidates

// ExactTextCandidates returns chunks whose content contains the query as a
// whole-word, case-insensitive match. Exact matches are maximally relevant by
// convention, so every row carries distance 0.
func (c *DatabaseClient) ExactTextCandidates(ctx context.Context, provider core.ProviderKind, collection, query string) ([]models.SearchResult, error) {
	q := fmt.Sprintf(`
		SELECT c.content, c.chunk_index, d.filename, col.name
		FROM %s c
		JOIN documents d ON c.document_id = d.id
		JOIN collections col ON d.collection_id = col.id
		WHERE c.content ~* ('\y' || $1 || '\y')
	`, chunkTable(provider))
	args := []any{regexp.QuoteMeta(query)}
	if collection != core.AllCollections {
		q += ` AND col.name = $2`
		args = append(args, collection)
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.ChunkContent, &r.ChunkIndex, &r.DocumentFilename, &r.CollectionName); err != nil {
			return nil, err
		}
		r.Distance = 0.0
		out = append(out, r)
	}
	return out, rows.Err()
}

// VectorCandidates returns up to limit chunks ordered by ascending L2
// distance to queryVec.
func (c *DatabaseClient) VectorCandidates(ctx context.Context, provider core.ProviderKind, collection string, queryVec []float32, limit int) ([]models.SearchResult, error) {
	q := fmt.Sprintf(`
		SELECT c.content, c.chunk_index, d.filename, col.name,
		       c.content_vector <-> $1 AS distance
		FROM %s c
		JOIN documents d ON c.document_id = d.id
		JOIN collections col ON d.collection_id = col.id
	`, chunkTable(provider))
	args := []any{pgvector.NewVector(queryVec)}
	if collection != core.AllCollections {
		q += ` WHERE col.name = $2`
		args = append(args, collection)
	}
	q += fmt.Sprintf(` ORDER BY distance ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchResult
	for rows.Next() {
		var (
			r   models.SearchResult
			raw any
		)
		if err := rows.Scan(&r.ChunkContent, &r.ChunkIndex, &r.DocumentFilename, &r.CollectionName, &raw); err != nil {
			return nil, err
		}
		r.Distance = coerceDistance(raw)
		out = append(out, r)
	}
	return out, rows.Err()
}

// coerceDistance flattens whatever the driver hands back for the distance
// expression into a plain float64. Unparseable values default to 0.0 with a
// warning rather than failing the search.
func coerceDistance(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case []byte:
		if f, err := strconv.ParseFloat(string(v), 64); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case nil:
		return 0.0
	}
	log.Printf("search: unexpected distance type %T, using 0.0", raw)
	return 0.0
}

var _ core.DbClient = (*DatabaseClient)(nil)
