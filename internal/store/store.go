// Package store persists named queries in a local SQLite database, so
// a conversion a user liked can be re-run by name instead of retyped.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// SavedQuery is one stored conversion: the natural-language text the
// user typed and the WIQL it compiled to at save time. The WIQL is a
// snapshot; re-running the text may compile differently after a field
// table change.
type SavedQuery struct {
	ID        string
	Name      string
	Query     string
	WIQL      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound reports a name with no saved query behind it.
var ErrNotFound = errors.New("saved query not found")

// Store provides durable storage for saved queries.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores a query under a name, overwriting any previous query
// with the same name while keeping its id and creation time.
func (s *Store) Save(ctx context.Context, name, query, wiql string) (SavedQuery, error) {
	if name == "" {
		return SavedQuery{}, errors.New("saved query needs a name")
	}
	now := time.Now().UTC()

	existing, err := s.Get(ctx, name)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE saved_queries SET query_text = ?, wiql = ?, updated_at = ? WHERE name = ?`,
			query, wiql, now.Format(time.RFC3339), name)
		if err != nil {
			return SavedQuery{}, fmt.Errorf("update saved query %q: %w", name, err)
		}
		existing.Query = query
		existing.WIQL = wiql
		existing.UpdatedAt = now
		return existing, nil

	case errors.Is(err, ErrNotFound):
		sq := SavedQuery{
			ID:        uuid.NewString(),
			Name:      name,
			Query:     query,
			WIQL:      wiql,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO saved_queries (id, name, query_text, wiql, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sq.ID, sq.Name, sq.Query, sq.WIQL,
			sq.CreatedAt.Format(time.RFC3339), sq.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			return SavedQuery{}, fmt.Errorf("insert saved query %q: %w", name, err)
		}
		return sq, nil

	default:
		return SavedQuery{}, err
	}
}

// Get looks a saved query up by name.
func (s *Store) Get(ctx context.Context, name string) (SavedQuery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, query_text, wiql, created_at, updated_at
		 FROM saved_queries WHERE name = ?`, name)
	sq, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get saved query %q: %w", name, err)
	}
	return sq, nil
}

// List returns all saved queries ordered by name.
func (s *Store) List(ctx context.Context) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query_text, wiql, created_at, updated_at
		 FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list saved queries: %w", err)
	}
	defer rows.Close()

	var out []SavedQuery
	for rows.Next() {
		sq, err := scanSavedQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("list saved queries: %w", err)
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

// Delete removes a saved query by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete saved query %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(row scanner) (SavedQuery, error) {
	var (
		sq                   SavedQuery
		createdAt, updatedAt string
	)
	if err := row.Scan(&sq.ID, &sq.Name, &sq.Query, &sq.WIQL, &createdAt, &updatedAt); err != nil {
		return SavedQuery{}, err
	}
	var err error
	if sq.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return SavedQuery{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sq.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return SavedQuery{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return sq, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}
