package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tessera-search/tessera/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexWriter = (*Store)(nil)

// Store persists index entries in SQLite. Writes are transactional per
// batch and idempotent per unit: re-ingesting a document replaces its
// entries instead of duplicating them.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tessera/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tessera", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// WriteText persists a batch of text index entries.
func (s *Store) WriteText(ctx context.Context, entries []domain.TextIndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO text_entries
			(document_id, page_number, unit_id, embedding, text,
			 start_offset, end_offset, file_name, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id, unit_id) DO UPDATE SET
			page_number = excluded.page_number,
			embedding = excluded.embedding,
			text = excluded.text,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.DocumentID, e.PageNumber, e.UnitID,
			float32SliceToBytes(e.Embedding), e.Text,
			e.StartOffset, e.EndOffset, e.FileName, e.MIMEType, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert text entry %s: %w", e.UnitID, err)
		}
	}

	return tx.Commit()
}

// WriteImage persists a batch of image index entries.
func (s *Store) WriteImage(ctx context.Context, entries []domain.ImageIndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_entries
			(document_id, page_number, unit_id, embedding, summary,
			 kind, ordinal, unsummarized, image, file_name, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id, unit_id) DO UPDATE SET
			page_number = excluded.page_number,
			embedding = excluded.embedding,
			summary = excluded.summary,
			kind = excluded.kind,
			ordinal = excluded.ordinal,
			unsummarized = excluded.unsummarized,
			image = excluded.image,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.DocumentID, e.PageNumber, e.UnitID,
			float32SliceToBytes(e.Embedding), e.Summary,
			int(e.Kind), e.Ordinal, e.Unsummarized, e.Image,
			e.FileName, e.MIMEType, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert image entry %s: %w", e.UnitID, err)
		}
	}

	return tx.Commit()
}

// TextEntries returns all text entries for a document, ordered by page
// and offset.
func (s *Store) TextEntries(ctx context.Context, documentID string) ([]domain.TextIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, page_number, unit_id, embedding, text,
		       start_offset, end_offset, file_name, mime_type, created_at
		FROM text_entries
		WHERE document_id = ?
		ORDER BY page_number, start_offset
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query text entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TextIndexEntry
	for rows.Next() {
		var e domain.TextIndexEntry
		var blob []byte
		if err := rows.Scan(
			&e.DocumentID, &e.PageNumber, &e.UnitID, &blob, &e.Text,
			&e.StartOffset, &e.EndOffset, &e.FileName, &e.MIMEType, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan text entry: %w", err)
		}
		e.Embedding = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ImageEntries returns all image entries for a document, ordered by
// page and ordinal.
func (s *Store) ImageEntries(ctx context.Context, documentID string) ([]domain.ImageIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, page_number, unit_id, embedding, summary,
		       kind, ordinal, unsummarized, image, file_name, mime_type, created_at
		FROM image_entries
		WHERE document_id = ?
		ORDER BY page_number, ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query image entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ImageIndexEntry
	for rows.Next() {
		var e domain.ImageIndexEntry
		var blob []byte
		var kind int
		if err := rows.Scan(
			&e.DocumentID, &e.PageNumber, &e.UnitID, &blob, &e.Summary,
			&kind, &e.Ordinal, &e.Unsummarized, &e.Image,
			&e.FileName, &e.MIMEType, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan image entry: %w", err)
		}
		e.Kind = domain.ImageKind(kind)
		e.Embedding = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteDocument removes every entry for a document from both tables.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM text_entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("delete text entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM image_entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("delete image entries: %w", err)
	}

	return tx.Commit()
}

// migrate applies pending .up.sql migrations in version order.
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
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
