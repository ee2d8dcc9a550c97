// In-process Store adapter. It implements the full port contract, including
// live subscriptions, against plain maps, and is the backend used by the test
// suite and by local development without Firebase credentials.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process document store. Values are normalized through a
// JSON round trip on write, so documents behave like the schemaless maps the
// hosted backend stores. Safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[int]*memorySub
	nextSubID   int
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		subs:        make(map[int]*memorySub),
	}
}

type memorySub struct {
	owner      *Memory
	id         int
	collection string
	query      Query
	ch         chan []Document
	closed     bool
}

// Updates implements Subscription.
func (s *memorySub) Updates() <-chan []Document { return s.ch }

// Close implements Subscription; it is idempotent.
func (s *memorySub) Close() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.owner.subs, s.id)
	close(s.ch)
}

// Get implements Store. Stored maps are never mutated after insertion (Set
// and Update both replace them wholesale), so decoding outside the lock is
// safe.
func (m *Memory) Get(ctx context.Context, collection, id string, dst any) error {
	m.mu.Lock()
	doc, ok := m.collections[collection][id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return decodeMap(doc, dst)
}

// Query implements Store.
func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluateLocked(collection, q), nil
}

// Subscribe implements Store. The initial snapshot is delivered immediately;
// later snapshots follow every mutation of the collection. Delivery is
// latest-wins: a slow consumer only ever misses intermediate states, never
// the final one.
func (m *Memory) Subscribe(ctx context.Context, collection string, q Query) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &memorySub{
		owner:      m,
		id:         m.nextSubID,
		collection: collection,
		query:      q,
		ch:         make(chan []Document, 1),
	}
	m.nextSubID++
	m.subs[s.id] = s
	s.push(m.evaluateLocked(collection, q))
	return s, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, collection, id string, v any) error {
	doc, err := encodeDoc(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.collections[collection]
	if col == nil {
		col = make(map[string]map[string]any)
		m.collections[collection] = col
	}
	col[id] = doc
	m.notifyLocked(collection)
	return nil
}

// Update implements Store. The stored map is replaced wholesale, never
// mutated, so document references handed out earlier stay stable.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	next := make(map[string]any, len(doc)+len(fields))
	for k, v := range doc {
		next[k] = v
	}
	for k, v := range fields {
		ev, err := encodeValue(v)
		if err != nil {
			return err
		}
		next[k] = ev
	}
	m.collections[collection][id] = next
	m.notifyLocked(collection)
	return nil
}

// Delete implements Store. Deleting a missing document is a no-op.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := col[id]; !ok {
		return nil
	}
	delete(col, id)
	m.notifyLocked(collection)
	return nil
}

// Add implements Store.
func (m *Memory) Add(ctx context.Context, collection string, v any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// ---- internals ----

// evaluateLocked runs q over a collection. Caller holds m.mu.
func (m *Memory) evaluateLocked(collection string, q Query) []Document {
	type hit struct {
		id  string
		doc map[string]any
	}
	var hits []hit
	for id, doc := range m.collections[collection] {
		if matches(doc, q) {
			hits = append(hits, hit{id: id, doc: doc})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if q.OrderBy != "" {
			less := compareValues(hits[i].doc[q.OrderBy], hits[j].doc[q.OrderBy])
			if less != 0 {
				if q.Desc {
					return less > 0
				}
				return less < 0
			}
		}
		return hits[i].id < hits[j].id
	})
	out := make([]Document, 0, len(hits))
	for _, h := range hits {
		doc := h.doc
		out = append(out, NewDocument(h.id, func(dst any) error {
			return decodeMap(doc, dst)
		}))
	}
	return out
}

// notifyLocked pushes fresh snapshots to every subscription watching the
// mutated collection. Caller holds m.mu.
func (m *Memory) notifyLocked(collection string) {
	for _, s := range m.subs {
		if s.collection == collection {
			s.push(m.evaluateLocked(collection, s.query))
		}
	}
}

// push replaces any undelivered snapshot with the latest one. Caller holds
// the owner's mutex, which also serializes push against Close.
func (s *memorySub) push(docs []Document) {
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- docs
}

func matches(doc map[string]any, q Query) bool {
	for field, want := range q.Eq {
		ev, err := encodeValue(want)
		if err != nil || !reflect.DeepEqual(doc[field], ev) {
			return false
		}
	}
	for field, want := range q.Contains {
		ev, err := encodeValue(want)
		if err != nil {
			return false
		}
		arr, ok := doc[field].([]any)
		if !ok {
			return false
		}
		found := false
		for _, el := range arr {
			if reflect.DeepEqual(el, ev) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// compareValues orders two normalized document values, returning <0, 0 or >0.
// Strings that parse as RFC 3339 timestamps are compared as instants so that
// fractional seconds order correctly.
func compareValues(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		at, aerr := time.Parse(time.RFC3339Nano, as)
		bt, berr := time.Parse(time.RFC3339Nano, bs)
		if aerr == nil && berr == nil {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return 0
}

// encodeDoc normalizes a struct or map into the stored document shape.
func encodeDoc(v any) (map[string]any, error) {
	ev, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	doc, ok := ev.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("store: document value must encode to an object, got %T", ev)
	}
	return doc, nil
}

// encodeValue round-trips v through JSON so stored values use the same
// primitive types regardless of the Go type written.
func encodeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeMap(doc map[string]any, dst any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
