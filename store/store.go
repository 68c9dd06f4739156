// Package store keeps submitted records in a local SQLite database. It
// serves as both the persistence sink and the record source when no
// backend is configured.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
	_ "modernc.org/sqlite"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/wire"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Store is a SQLite-backed record store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Summary describes a stored record without its payload.
type Summary struct {
	ID          string
	ProductType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			product_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS records_product_type ON records(product_type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}
	return nil
}

// Submit stores a record and returns its id. A record without id gets a
// new one; a record with an id replaces the stored record of that id.
func (s *Store) Submit(ctx context.Context, rec multilingual.NormalizedRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	payload, err := wire.Marshal(rec)
	if err != nil {
		return "", err
	}

	now := s.now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records(id, product_type, payload, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_type = excluded.product_type,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, rec.ProductType, string(payload), now, now)
	if err != nil {
		return "", fmt.Errorf("storing record %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// Record loads a stored record. Malformed values are left unset and logged.
func (s *Store) Record(ctx context.Context, id string) (multilingual.NormalizedRecord, error) {
	raw, err := s.RawRecord(ctx, id)
	if err != nil {
		return multilingual.NormalizedRecord{}, err
	}
	rec, issues := wire.FromStruct(raw)
	for _, issue := range issues {
		slog.Warn("malformed value in stored record", "record", id, "field", issue.Field, "err", issue.Message)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// RawRecord loads a stored record in its wire form, as it was written.
func (s *Store) RawRecord(ctx context.Context, id string) (*structpb.Struct, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading record %s: %w", id, err)
	}
	raw, err := wire.Parse([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return raw, nil
}

// List returns the stored records, most recently updated first. An empty
// productType lists every record.
func (s *Store) List(ctx context.Context, productType string) ([]Summary, error) {
	query := `SELECT id, product_type, created_at, updated_at FROM records`
	var args []any
	if productType != "" {
		query += ` WHERE product_type = ?`
		args = append(args, productType)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created, updated string
		if err := rows.Scan(&sum.ID, &sum.ProductType, &created, &updated); err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(timeLayout, created)
		sum.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return out, nil
}

// Delete removes a stored record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
