// Package record defines the entities browsed by the paginator.
//
// A Record belongs to a named collection and carries two timestamps that
// can serve as its order key (created_at, updated_at) plus an attribute
// payload. Attribute values form a sealed type tree (String, Int, Bool,
// List, Map) that serializes to RFC 8785 canonical JSON.
//
// The order key used for a query is chosen with a typed Field, resolved
// when the query is built:
//
//	field, err := record.ParseField("updated_at")
//	key, err := rec.Key(field)
package record
