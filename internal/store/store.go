// Package store defines the document-store port consumed by the repository
// layer, together with its two adapters: a Firestore-backed implementation
// for production and an in-process implementation for tests and local
// development.
//
// The port is a deliberately small capability set: point reads and writes,
// filtered queries, and live query subscriptions delivered as a stream of
// snapshots with deterministic teardown. Collections are addressed by
// slash-joined paths, so subcollections compose naturally
// ("users/{uid}/favorites", "chats/{chatId}/messages").
//
// Error semantics:
//   - Get on a missing document returns ErrNotFound.
//   - All other backend failures are propagated as-is; callers decide whether
//     to log, surface, or drop them. Nothing in this package retries.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a directly addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one query or subscription result. DataTo decodes the document
// body into dst using the adapter's native decoder (firestore tags for the
// Firestore adapter).
type Document struct {
	// ID is the document key within its collection.
	ID string

	dataTo func(dst any) error
}

// NewDocument builds a Document from an id and a decode function. Adapters
// and test fakes use it; application code only consumes DataTo.
func NewDocument(id string, dataTo func(dst any) error) Document {
	return Document{ID: id, dataTo: dataTo}
}

// DataTo decodes the document body into dst, which must be a pointer.
// A failure here is a per-item decode failure: list consumers are expected
// to drop the item rather than abort the whole result.
func (d Document) DataTo(dst any) error {
	if d.dataTo == nil {
		return errors.New("document has no data")
	}
	return d.dataTo(dst)
}

// Query describes a filtered, optionally ordered read over one collection.
// Supported operators mirror what the hosted backend offers the mobile
// clients: equality, array-contains, and a single order-by field.
type Query struct {
	// Eq filters on field == value.
	Eq map[string]any
	// Contains filters on array field containing value.
	Contains map[string]any
	// OrderBy names the field to sort on; empty means backend order.
	OrderBy string
	// Desc reverses the OrderBy direction.
	Desc bool
}

// Subscription is a live query: a stream of full result-set snapshots.
// Updates delivers the current matching documents after every relevant
// mutation (and once on open). Close tears the stream down deterministically
// and is safe to call more than once; Updates is closed afterwards.
type Subscription interface {
	Updates() <-chan []Document
	Close()
}

// Store is the document-store capability set consumed by the repo layer.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get reads the document id from collection into dst.
	// Returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string, dst any) error

	// Query returns all documents of collection matching q.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Subscribe opens a live query over collection. The returned subscription
	// pushes a snapshot of the full result set on every change.
	Subscribe(ctx context.Context, collection string, q Query) (Subscription, error)

	// Set writes the full document id in collection, creating or replacing it.
	Set(ctx context.Context, collection, id string, v any) error

	// Update merges the given fields into an existing document. Field names
	// use the document schema (firestore tag names).
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Add writes v under a freshly generated id and returns that id.
	Add(ctx context.Context, collection string, v any) (string, error)
}
