package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/timeline/internal/queryir"
	"github.com/roach88/timeline/internal/querysql"
	"github.com/roach88/timeline/internal/record"
)

var selectRecordByID = "SELECT " + querysql.Columns + " FROM " + querysql.Table + " WHERE id = ?"

// RangeQuery answers one bounded, ordered read of a collection.
//
// The query is compiled by querysql; rows come back in the requested order
// with id as the secondary key. Returns an empty slice (not nil) when
// nothing matches. Invalid queries are rejected before touching the
// database; database failures match ErrUnavailable.
func (s *Store) RangeQuery(ctx context.Context, q queryir.Range) ([]record.Record, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, unavailable("range query", err)
	}
	defer rows.Close()

	records := make([]record.Record, 0, min(q.Limit, maxPrealloc))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("range query: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("range query: iterate", err)
	}

	return records, nil
}

// maxPrealloc bounds the slice capacity reserved for a range read.
const maxPrealloc = 64

// ReadRecord retrieves a single record by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadRecord(ctx context.Context, id string) (record.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecordByID, id))
	if err != nil {
		return record.Record{}, fmt.Errorf("read record %q: %w", id, err)
	}
	return rec, nil
}

// CountRecords returns the number of records in a collection.
func (s *Store) CountRecords(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+querysql.Table+" WHERE collection = ?",
		collection,
	).Scan(&count)
	if err != nil {
		return 0, unavailable("count records", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one row projected with querysql.Columns.
func scanRecord(row rowScanner) (record.Record, error) {
	var (
		rec       record.Record
		createdAt int64
		updatedAt int64
		attrsJSON string
	)

	err := row.Scan(&rec.ID, &rec.Collection, &createdAt, &updatedAt, &attrsJSON)
	if err != nil {
		if isNoRows(err) {
			return record.Record{}, ErrNotFound
		}
		return record.Record{}, unavailable("scan record", err)
	}

	attrs, err := unmarshalAttrs(attrsJSON)
	if err != nil {
		return record.Record{}, fmt.Errorf("scan record %q: %w", rec.ID, err)
	}

	rec.CreatedAt = querysql.FromMicros(createdAt)
	rec.UpdatedAt = querysql.FromMicros(updatedAt)
	rec.Attrs = attrs
	return rec, nil
}

var _ rowScanner = (*sql.Row)(nil)
