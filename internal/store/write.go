package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/timeline/internal/querysql"
	"github.com/roach88/timeline/internal/record"
)

// CreateRecord inserts a new record into a collection.
//
// The record gets a fresh ID from the store's generator, and CreatedAt and
// UpdatedAt are both set to the clock's current time at microsecond
// resolution. Nil attrs are stored as an empty object.
func (s *Store) CreateRecord(ctx context.Context, collection string, attrs record.Attrs) (record.Record, error) {
	if collection == "" || strings.TrimSpace(collection) != collection {
		return record.Record{}, fmt.Errorf("create record: %w: collection %q", ErrInvalid, collection)
	}

	attrsJSON, err := marshalAttrs(attrs)
	if err != nil {
		return record.Record{}, fmt.Errorf("create record: %w: %w", ErrInvalid, err)
	}
	if attrs == nil {
		attrs = record.Attrs{}
	}

	now := s.now()
	rec := record.Record{
		ID:         s.ids.Generate(),
		Collection: collection,
		CreatedAt:  now,
		UpdatedAt:  now,
		Attrs:      attrs,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, created_at, updated_at, attrs)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Collection,
		querysql.ToMicros(rec.CreatedAt),
		querysql.ToMicros(rec.UpdatedAt),
		attrsJSON,
	)
	if err != nil {
		return record.Record{}, unavailable("create record", err)
	}

	return rec, nil
}

// TouchRecord refreshes a record's UpdatedAt to the clock's current time,
// moving it to the newest end of the updated_at ordering.
//
// When attrs is non-nil it replaces the stored attrs; nil leaves them as
// they are. CreatedAt never changes. Returns ErrNotFound if the ID does not
// exist.
func (s *Store) TouchRecord(ctx context.Context, id string, attrs record.Attrs) (record.Record, error) {
	var attrsJSON sql.NullString
	if attrs != nil {
		data, err := marshalAttrs(attrs)
		if err != nil {
			return record.Record{}, fmt.Errorf("touch record: %w: %w", ErrInvalid, err)
		}
		attrsJSON = sql.NullString{String: data, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Record{}, unavailable("touch record: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	// MAX keeps updated_at >= created_at if the clock ever steps backwards.
	result, err := tx.ExecContext(ctx, `
		UPDATE records
		SET updated_at = MAX(created_at, ?),
		    attrs = COALESCE(?, attrs)
		WHERE id = ?
	`, querysql.ToMicros(s.now()), attrsJSON, id)
	if err != nil {
		return record.Record{}, unavailable("touch record", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return record.Record{}, unavailable("touch record: rows affected", err)
	}
	if n == 0 {
		return record.Record{}, fmt.Errorf("touch record %q: %w", id, ErrNotFound)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecordByID, id))
	if err != nil {
		return record.Record{}, fmt.Errorf("touch record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return record.Record{}, unavailable("touch record: commit", err)
	}

	return rec, nil
}

// DeleteRecord removes a record. Returns ErrNotFound if the ID does not
// exist.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete record", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete record: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("delete record %q: %w", id, ErrNotFound)
	}
	return nil
}

// isNoRows reports whether err is the driver's "no rows" result.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
