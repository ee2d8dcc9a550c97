// Firestore-backed Store adapter. This is the production implementation of
// the document-store port; it wraps a *firestore.Client obtained from the
// Firebase app and translates the port's query and subscription contracts
// onto Firestore queries and snapshot listeners.
package store

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Firestore client to the Store port.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps an initialized Firestore client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

// Get implements Store.
func (f *Firestore) Get(ctx context.Context, collection, id string, dst any) error {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return snap.DataTo(dst)
}

// Query implements Store.
func (f *Firestore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	it := f.buildQuery(collection, q).Documents(ctx)
	defer it.Stop()

	var out []Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, wrapSnapshot(snap))
	}
}

// Subscribe implements Store. The returned subscription is fed by a Firestore
// snapshot listener; Close cancels the listener and ends the stream.
func (f *Firestore) Subscribe(ctx context.Context, collection string, q Query) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := f.buildQuery(collection, q).Snapshots(ctx)

	s := &firestoreSub{
		ch:     make(chan []Document, 1),
		cancel: cancel,
		it:     it,
	}
	go s.run()
	return s, nil
}

// Set implements Store.
func (f *Firestore) Set(ctx context.Context, collection, id string, v any) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, v)
	return err
}

// Update implements Store.
func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

// Delete implements Store. Firestore treats deleting a missing document as a
// success, which matches the port contract.
func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Add implements Store.
func (f *Firestore) Add(ctx context.Context, collection string, v any) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, v)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (f *Firestore) buildQuery(collection string, q Query) firestore.Query {
	fq := f.client.Collection(collection).Query
	for field, v := range q.Eq {
		fq = fq.Where(field, "==", v)
	}
	for field, v := range q.Contains {
		fq = fq.Where(field, "array-contains", v)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	return fq
}

func wrapSnapshot(snap *firestore.DocumentSnapshot) Document {
	return NewDocument(snap.Ref.ID, snap.DataTo)
}

type firestoreSub struct {
	ch     chan []Document
	cancel context.CancelFunc
	it     *firestore.QuerySnapshotIterator
	once   sync.Once
}

func (s *firestoreSub) Updates() <-chan []Document { return s.ch }

// Close implements Subscription; idempotent.
func (s *firestoreSub) Close() {
	s.once.Do(func() {
		s.cancel()
		s.it.Stop()
	})
}

// run pumps listener snapshots into the channel. It is the sole writer and
// closer of s.ch; delivery is latest-wins so a slow consumer only skips
// intermediate states.
func (s *firestoreSub) run() {
	defer close(s.ch)
	for {
		snap, err := s.it.Next()
		if err != nil {
			// Canceled on Close, or a terminal listener failure. Either way
			// the stream ends here; consumers resubscribe if they care.
			return
		}
		all, err := snap.Documents.GetAll()
		if err != nil {
			continue
		}
		docs := make([]Document, 0, len(all))
		for _, d := range all {
			docs = append(docs, wrapSnapshot(d))
		}
		select {
		case <-s.ch:
		default:
		}
		s.ch <- docs
	}
}
