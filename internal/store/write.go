package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// Entry is the catalog metadata of one stored document.
type Entry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Digest        string `json:"digest"`
	Nodes         int    `json:"nodes"`
	Modifications int    `json:"modifications"`
	Increments    int    `json:"increments"`
	Seq           int64  `json:"seq"`
}

// Put stores doc under name, replacing any document already stored there.
//
// A replaced row keeps its id and gets a new seq, so it moves to the end of
// List. The body is canonical JSON compressed with zstd; Digest is the
// BLAKE3 document digest of that canonical form.
func (s *Store) Put(ctx context.Context, name string, doc ir.Document) (Entry, error) {
	if name == "" {
		return Entry{}, errors.New("put document: empty name")
	}

	body, digest, err := marshalDocument(doc)
	if err != nil {
		return Entry{}, fmt.Errorf("put document %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents
		(id, name, digest, node_count, modification_count, increment_count, body, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			digest = excluded.digest,
			node_count = excluded.node_count,
			modification_count = excluded.modification_count,
			increment_count = excluded.increment_count,
			body = excluded.body,
			seq = excluded.seq
	`,
		s.ids.Generate(),
		name,
		digest,
		len(doc.Nodes),
		len(doc.Modifications),
		len(doc.Increments),
		body,
		s.clock.Next(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("put document %q: %w", name, err)
	}

	return s.Stat(ctx, name)
}

// Delete removes the document stored under name.
// Returns false if there was none.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete document %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document %q: %w", name, err)
	}
	return n > 0, nil
}
