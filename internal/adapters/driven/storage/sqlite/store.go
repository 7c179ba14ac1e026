package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/vector"
)

// Store is the SQLite-backed embedding store. One row per chunk slot;
// vectors are stored as fixed-width binary blobs.
type Store struct {
	db    *sql.DB
	path  string
	codec vector.Codec
}

var _ driven.EmbeddingStore = (*Store)(nil)

// NewStore creates a SQLite store at the specified data directory with
// the given vector dimension. If dataDir is empty, defaults to
// ~/.semsearch/data.
func NewStore(dataDir string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".semsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "embeddings.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:    db,
		path:  dbPath,
		codec: vector.NewCodec(dimension),
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimension returns the vector dimension the store accepts.
func (s *Store) Dimension() int {
	return s.codec.Dimension()
}

// Put upserts a record by chunk slot. Reports whether a record with a
// different content hash previously occupied the slot.
func (s *Store) Put(ctx context.Context, rec domain.EmbeddingRecord) (bool, error) {
	blob, err := s.codec.Encode(rec.Vector)
	if err != nil {
		return false, fmt.Errorf("encoding vector for %s[%d]: %w",
			rec.ChunkID.DocumentID, rec.ChunkID.ChunkIndex, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storeErr("beginning transaction", err)
	}
	defer tx.Rollback()

	var prevHash string
	err = tx.QueryRowContext(ctx, `
		SELECT content_hash FROM embeddings
		WHERE document_id = ? AND chunk_index = ?
	`, rec.ChunkID.DocumentID, rec.ChunkID.ChunkIndex).Scan(&prevHash)
	existed := true
	if errors.Is(err, sql.ErrNoRows) {
		existed = false
	} else if err != nil {
		return false, storeErr("reading previous record", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, chunk_index, content_hash, vector, dimension, provider_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			content_hash = excluded.content_hash,
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider_tag = excluded.provider_tag,
			created_at = excluded.created_at
	`, rec.ChunkID.DocumentID, rec.ChunkID.ChunkIndex, rec.ChunkID.ContentHash,
		blob, s.codec.Dimension(), rec.ProviderTag, createdAt)
	if err != nil {
		return false, storeErr("writing record", err)
	}

	if err := tx.Commit(); err != nil {
		return false, storeErr("committing record", err)
	}

	return existed && prevHash != rec.ChunkID.ContentHash, nil
}

// Get retrieves a record by full chunk identity. A row whose content
// hash differs has been superseded and reads as absent.
func (s *Store) Get(ctx context.Context, id domain.ChunkID) (*domain.EmbeddingRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, chunk_index, content_hash, vector, provider_tag, created_at
		FROM embeddings
		WHERE document_id = ? AND chunk_index = ? AND content_hash = ?
	`, id.DocumentID, id.ChunkIndex, id.ContentHash)

	rec, err := s.scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chunk %s[%d]", domain.ErrNotFound, id.DocumentID, id.ChunkIndex)
	}
	if err != nil {
		return nil, storeErr("reading record", err)
	}
	return rec, nil
}

// Scan returns a lazy cursor over records, optionally filtered to the
// given document IDs. Rows come back ordered by slot so iteration is
// stable.
func (s *Store) Scan(ctx context.Context, scope []string) (driven.RecordCursor, error) {
	query := `
		SELECT document_id, chunk_index, content_hash, vector, provider_tag, created_at
		FROM embeddings
	`
	var args []any
	if len(scope) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(scope)), ",")
		query += ` WHERE document_id IN (` + placeholders + `)`
		for _, id := range scope {
			args = append(args, id)
		}
	}
	query += ` ORDER BY document_id, chunk_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("scanning records", err)
	}
	return &cursor{rows: rows, store: s}, nil
}

// DeleteDocument removes all records for a document. Idempotent.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE document_id = ?`, documentID)
	if err != nil {
		return storeErr("deleting document", err)
	}
	return nil
}

// DeleteChunksFrom removes records with chunk index >= fromIndex for a
// document.
func (s *Store) DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE document_id = ? AND chunk_index >= ?`,
		documentID, fromIndex)
	if err != nil {
		return storeErr("pruning chunks", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	if err != nil {
		return 0, storeErr("counting records", err)
	}
	return n, nil
}

// scanRecord builds a record from one row, decoding the vector blob.
func (s *Store) scanRecord(scan func(dest ...any) error) (*domain.EmbeddingRecord, error) {
	var (
		rec       domain.EmbeddingRecord
		blob      []byte
		createdAt time.Time
	)
	err := scan(&rec.ChunkID.DocumentID, &rec.ChunkID.ChunkIndex,
		&rec.ChunkID.ContentHash, &blob, &rec.ProviderTag, &createdAt)
	if err != nil {
		return nil, err
	}

	vec, err := s.codec.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding vector for %s[%d]: %w",
			rec.ChunkID.DocumentID, rec.ChunkID.ChunkIndex, err)
	}
	rec.Vector = vec
	rec.Dimension = len(vec)
	rec.CreatedAt = createdAt.UTC()
	return &rec, nil
}

// cursor adapts sql.Rows to driven.RecordCursor.
type cursor struct {
	rows    *sql.Rows
	store   *Store
	current *domain.EmbeddingRecord
	err     error
}

func (c *cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		return false
	}
	rec, err := c.store.scanRecord(c.rows.Scan)
	if err != nil {
		c.err = err
		return false
	}
	c.current = rec
	return true
}

func (c *cursor) Record() *domain.EmbeddingRecord {
	return c.current
}

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g. "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// storeErr wraps an I/O failure in the store's sentinel.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
