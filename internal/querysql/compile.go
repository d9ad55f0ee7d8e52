package querysql

import (
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/queryir"
	"github.com/roach88/timeline/internal/record"
)

// Table is the SQLite table holding every collection's records.
const Table = "records"

// Columns is the projection every compiled query returns, in scan order.
const Columns = "id, collection, created_at, updated_at, attrs"

// columns maps order fields to their SQLite column. Field names are never
// interpolated from caller input; only these identifiers reach the SQL text.
var columns = map[record.Field]string{
	record.FieldCreatedAt: "created_at",
	record.FieldUpdatedAt: "updated_at",
}

// SQLCompiler compiles range queries to parameterized SQL for SQLite.
//
// CRITICAL: ORDER BY always carries id as a tiebreaker so repeated reads
// return rows in the same order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a range query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// Timestamps are bound as unix microseconds, the storage representation of
// order keys.
func (c *SQLCompiler) Compile(q queryir.Range) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid range query: %w", err)
	}

	column, ok := columns[q.Field]
	if !ok {
		return "", nil, fmt.Errorf("unsupported order field: %q", q.Field)
	}

	where := "collection = ?"
	params := []any{q.Collection}

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	dir := q.Order.String()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s %s, id COLLATE BINARY %s LIMIT ?",
		Columns,
		Table,
		where,
		column, dir,
		dir)
	params = append(params, q.Limit)

	return sql, params, nil
}

// compilePredicate compiles a range bound to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.AtMost:
		return c.compileBound(pred.Field, "<=", pred.Value)
	case *queryir.AtMost:
		return c.compileBound(pred.Field, "<=", pred.Value)
	case queryir.AtLeast:
		return c.compileBound(pred.Field, ">=", pred.Value)
	case *queryir.AtLeast:
		return c.compileBound(pred.Field, ">=", pred.Value)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileBound(field record.Field, op string, value time.Time) (string, []any, error) {
	column, ok := columns[field]
	if !ok {
		return "", nil, fmt.Errorf("unsupported filter field: %q", field)
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{ToMicros(value)}, nil
}

// ToMicros converts an order key to its storage representation.
func ToMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// FromMicros converts a stored order key back to a UTC time.
func FromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
