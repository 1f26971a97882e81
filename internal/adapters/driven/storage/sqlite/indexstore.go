package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// Metadata value kinds as stored in index_metadata.kind.
const (
	kindString = "s"
	kindInt    = "i"
	kindFloat  = "f"
	kindBool   = "b"
)

// stagingDDL creates the staging copies of the snapshot tables.
const stagingDDL = `
	DROP TABLE IF EXISTS index_meta_next;
	DROP TABLE IF EXISTS index_entries_next;
	DROP TABLE IF EXISTS index_metadata_next;
	CREATE TABLE index_meta_next (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		dimension INTEGER NOT NULL,
		embedding_model TEXT NOT NULL DEFAULT '',
		built_at TEXT NOT NULL
	);
	CREATE TABLE index_entries_next (
		document_id INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	CREATE TABLE index_metadata_next (
		document_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('s', 'i', 'f', 'b')),
		value TEXT NOT NULL,
		PRIMARY KEY (document_id, key)
	);
`

// swapDDL replaces the live snapshot tables with the staging tables.
const swapDDL = `
	DROP TABLE IF EXISTS index_meta;
	DROP TABLE IF EXISTS index_entries;
	DROP TABLE IF EXISTS index_metadata;
	ALTER TABLE index_meta_next RENAME TO index_meta;
	ALTER TABLE index_entries_next RENAME TO index_entries;
	ALTER TABLE index_metadata_next RENAME TO index_metadata;
`

// Save replaces the persisted snapshot. Rows are written into staging tables
// which are renamed over the live ones before commit, so a failure at any
// point leaves the previous snapshot intact.
func (s *indexStore) Save(ctx context.Context, snapshot domain.IndexSnapshot) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, stagingDDL); err != nil {
		return fmt.Errorf("creating staging tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta_next (id, dimension, embedding_model, built_at) VALUES (1, ?, ?, ?)
	`, snapshot.Dimension, snapshot.EmbeddingModel, snapshot.BuiltAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving index meta: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries_next (document_id, text, embedding) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer entryStmt.Close()

	metaStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_metadata_next (document_id, key, kind, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer metaStmt.Close()

	for i := range snapshot.Entries {
		entry := &snapshot.Entries[i]
		if len(entry.Embedding) != snapshot.Dimension {
			return fmt.Errorf("%w: entry %d has %d values, snapshot dimension is %d",
				domain.ErrDimensionMismatch, entry.DocumentID, len(entry.Embedding), snapshot.Dimension)
		}
		if _, err := entryStmt.ExecContext(ctx, entry.DocumentID, entry.Text,
			encodeVector(entry.Embedding)); err != nil {
			return fmt.Errorf("saving entry %d: %w", entry.DocumentID, err)
		}

		for key, value := range entry.Metadata {
			kind, text, err := encodeScalar(value)
			if err != nil {
				return fmt.Errorf("entry %d metadata %q: %w", entry.DocumentID, key, err)
			}
			if _, err := metaStmt.ExecContext(ctx, entry.DocumentID, key, kind, text); err != nil {
				return fmt.Errorf("saving entry %d metadata: %w", entry.DocumentID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, swapDDL); err != nil {
		return fmt.Errorf("swapping snapshot tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot with entries in ascending DocumentID order.
func (s *indexStore) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	var (
		snapshot domain.IndexSnapshot
		builtAt  string
	)
	err := s.store.db.QueryRowContext(ctx, `
		SELECT dimension, embedding_model, built_at FROM index_meta WHERE id = 1
	`).Scan(&snapshot.Dimension, &snapshot.EmbeddingModel, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading index meta: %w", err)
	}
	snapshot.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt)
	if err != nil {
		return nil, fmt.Errorf("parsing built_at: %w", err)
	}

	metadata, err := s.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, text, embedding FROM index_entries ORDER BY document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying index entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry domain.IndexEntry
			blob  []byte
		)
		if err := rows.Scan(&entry.DocumentID, &entry.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning index entry: %w", err)
		}
		if entry.Embedding, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("entry %d: %w", entry.DocumentID, err)
		}
		entry.Metadata = metadata[entry.DocumentID]
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}

	return &snapshot, nil
}

func (s *indexStore) loadMetadata(ctx context.Context) (map[int64]domain.Metadata, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT document_id, key, kind, value FROM index_metadata`)
	if err != nil {
		return nil, fmt.Errorf("querying index metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Metadata)
	for rows.Next() {
		var (
			id                int64
			key, kind, stored string
		)
		if err := rows.Scan(&id, &key, &kind, &stored); err != nil {
			return nil, fmt.Errorf("scanning index metadata: %w", err)
		}
		value, err := decodeScalar(kind, stored)
		if err != nil {
			return nil, fmt.Errorf("entry %d metadata %q: %w", id, key, err)
		}
		if out[id] == nil {
			out[id] = domain.Metadata{}
		}
		out[id][key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index metadata: %w", err)
	}
	return out, nil
}

// encodeScalar turns a metadata value into its kind and text form.
func encodeScalar(v any) (kind, text string, err error) {
	switch n := domain.NormaliseScalar(v).(type) {
	case string:
		return kindString, n, nil
	case int64:
		return kindInt, strconv.FormatInt(n, 10), nil
	case float64:
		return kindFloat, strconv.FormatFloat(n, 'g', -1, 64), nil
	case bool:
		return kindBool, strconv.FormatBool(n), nil
	default:
		return "", "", fmt.Errorf("%w: metadata value of type %T", domain.ErrUnsupportedType, v)
	}
}

// decodeScalar reverses encodeScalar.
func decodeScalar(kind, text string) (any, error) {
	switch kind {
	case kindString:
		return text, nil
	case kindInt:
		return strconv.ParseInt(text, 10, 64)
	case kindFloat:
		return strconv.ParseFloat(text, 64)
	case kindBool:
		return strconv.ParseBool(text)
	default:
		return nil, fmt.Errorf("%w: metadata kind %q", domain.ErrUnsupportedType, kind)
	}
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, 0, len(blob)/4)
	for ; len(blob) > 0; blob = blob[4:] {
		v = append(v, math.Float32frombits(binary.LittleEndian.Uint32(blob)))
	}
	return v, nil
}
