package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

// DataDirName is the per-vault directory holding the database and lock.
const DataDirName = ".notelink"

// DatabaseName is the file name of the notes database inside DataDirName.
const DatabaseName = "notes.db"

// DefaultPath returns the database path for a vault root.
func DefaultPath(vaultRoot string) string {
	return filepath.Join(vaultRoot, DataDirName, DatabaseName)
}

// SQLiteStore is the SQLite-backed document store.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	closed bool
}

// validateIntegrity checks an existing database file before opening it.
// Returns nil when the file is absent (it will be created) or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open opens or creates the store at path. An empty path opens an in-memory
// store, used by tests. Any failure is reported as StorageUnavailable.
func Open(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nlerrors.StorageUnavailable(path, err)
		}

		// The signatures are a cache of the vault, so a corrupt file is
		// dropped and rebuilt by the next scan.
		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, nlerrors.StorageUnavailable(path, err)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("store_cleared", slog.String("path", path))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nlerrors.StorageUnavailable(path, err)
	}

	// Single connection: one logical writer, and in-memory databases are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, nlerrors.StorageUnavailable(path, fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, nlerrors.StorageUnavailable(path, fmt.Errorf("failed to initialize schema: %w", err))
	}

	return s, nil
}

// initSchema creates the notes table if absent.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filepath TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		folder_topic TEXT,
		keywords TEXT -- comma-separated keyword signature
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database path ("" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// Upsert inserts or fully replaces one document.
func (s *SQLiteStore) Upsert(ctx context.Context, doc Document) error {
	return s.UpsertAll(ctx, []Document{doc})
}

// UpsertAll inserts or replaces documents in a single transaction, keyed by path.
// Existing rows keep their id so load order stays stable across runs.
func (s *SQLiteStore) UpsertAll(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if s.closed {
		return nlerrors.StorageWriteFailure(fmt.Errorf("store is closed"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nlerrors.StorageWriteFailure(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (filepath, filename, folder_topic, keywords)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(filepath) DO UPDATE SET
			filename = excluded.filename,
			folder_topic = excluded.folder_topic,
			keywords = excluded.keywords`)
	if err != nil {
		return nlerrors.StorageWriteFailure(fmt.Errorf("failed to prepare upsert: %w", err))
	}
	defer stmt.Close()

	for _, doc := range docs {
		encoded, err := EncodeSignature(doc.Signature)
		if err != nil {
			return nlerrors.StorageWriteFailure(err).WithDetail("path", doc.Path)
		}
		if _, err := stmt.ExecContext(ctx, doc.Path, doc.Name, doc.Group, encoded); err != nil {
			return nlerrors.StorageWriteFailure(fmt.Errorf("failed to upsert %s: %w", doc.Path, err)).
				WithDetail("path", doc.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return nlerrors.StorageWriteFailure(fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// LoadAll returns every stored document in insertion order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]Document, error) {
	if s.closed {
		return nil, nlerrors.StorageReadFailure(fmt.Errorf("store is closed"))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filepath, filename, folder_topic, keywords FROM notes ORDER BY id`)
	if err != nil {
		return nil, nlerrors.StorageReadFailure(err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc      Document
			group    sql.NullString
			keywords sql.NullString
		)
		if err := rows.Scan(&doc.Path, &doc.Name, &group, &keywords); err != nil {
			return nil, nlerrors.StorageReadFailure(fmt.Errorf("failed to scan row: %w", err))
		}
		doc.Group = group.String
		doc.Signature = DecodeSignature(keywords.String)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, nlerrors.StorageReadFailure(err)
	}

	return docs, nil
}

// Prune deletes every document whose path is not in keep.
// Returns the number of rows removed.
func (s *SQLiteStore) Prune(ctx context.Context, keep []string) (int, error) {
	if s.closed {
		return 0, nlerrors.StorageWriteFailure(fmt.Errorf("store is closed"))
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		keepSet[p] = struct{}{}
	}

	existing, err := s.paths(ctx)
	if err != nil {
		return 0, nlerrors.StorageWriteFailure(err)
	}

	var stale []string
	for _, p := range existing {
		if _, ok := keepSet[p]; !ok {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nlerrors.StorageWriteFailure(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM notes WHERE filepath = ?`)
	if err != nil {
		return 0, nlerrors.StorageWriteFailure(fmt.Errorf("failed to prepare delete: %w", err))
	}
	defer stmt.Close()

	for _, p := range stale {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return 0, nlerrors.StorageWriteFailure(fmt.Errorf("failed to delete %s: %w", p, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, nlerrors.StorageWriteFailure(fmt.Errorf("failed to commit: %w", err))
	}

	return len(stale), nil
}

// paths returns every stored path.
func (s *SQLiteStore) paths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filepath FROM notes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed {
		return 0, nlerrors.StorageReadFailure(fmt.Errorf("store is closed"))
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, nlerrors.StorageReadFailure(err)
	}
	return n, nil
}

// Close checkpoints the WAL and closes the database. Safe to call twice.
func (s *SQLiteStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
