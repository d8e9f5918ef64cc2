package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

const entryColumns = `id, name, digest, node_count, modification_count, increment_count, seq`

// Get returns the document stored under name together with its entry.
// Returns an error wrapping sql.ErrNoRows if not found, and an error if the
// stored body no longer matches its digest.
func (s *Store) Get(ctx context.Context, name string) (ir.Document, Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`, body
		FROM documents
		WHERE name = ?
	`, name)

	var e Entry
	var body []byte
	if err := row.Scan(&e.ID, &e.Name, &e.Digest, &e.Nodes, &e.Modifications, &e.Increments, &e.Seq, &body); err != nil {
		return ir.Document{}, Entry{}, fmt.Errorf("get document %q: %w", name, err)
	}

	doc, err := unmarshalDocument(body, e.Digest)
	if err != nil {
		return ir.Document{}, Entry{}, fmt.Errorf("get document %q: %w", name, err)
	}
	return doc, e, nil
}

// Stat returns the entry stored under name without decoding its body.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) Stat(ctx context.Context, name string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM documents
		WHERE name = ?
	`, name)

	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("stat document %q: %w", name, err)
	}
	return e, nil
}

// List returns every entry in write order: ORDER BY seq ASC, id COLLATE BINARY ASC.
// Returns an empty slice (not nil) for an empty catalog.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM documents
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return collectEntries(rows)
}

// FindByDigest returns the entries whose content has the given digest, in
// write order.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM documents
		WHERE digest = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("query documents by digest: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	if err := sc.Scan(&e.ID, &e.Name, &e.Digest, &e.Nodes, &e.Modifications, &e.Increments, &e.Seq); err != nil {
		return Entry{}, fmt.Errorf("scan document: %w", err)
	}
	return e, nil
}
