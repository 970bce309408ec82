// Package docstore is a narrow document-database port: keyed reads,
// parameterized queries and partial writes over schemaless records.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	// ErrConflict reports a failed UpdateIf precondition.
	ErrConflict = errors.New("document changed concurrently")
)

// Document is a record: field name to value plus a store-generated id.
type Document struct {
	ID   string
	Data map[string]interface{}
}

type Op string

const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

type Order struct {
	Field     string
	Direction Direction
}

// Query selects documents of one collection. Zero Limit means unbounded.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      int
}

func From(collection string) Query {
	return Query{Collection: collection}
}

func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Direction: dir})
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Create stores data under a new server-generated id.
	Create(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	// CreateWithID fails with ErrAlreadyExists when id is taken.
	CreateWithID(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Update merges fields into an existing document, ErrNotFound otherwise.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// UpdateIf merges fields only while the stored value of field equals
	// want; ErrConflict otherwise.
	UpdateIf(ctx context.Context, collection, id, field string, want interface{}, fields map[string]interface{}) error
	// Delete is idempotent.
	Delete(ctx context.Context, collection, id string) error
}
