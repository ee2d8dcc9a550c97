package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testDoc struct {
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Members []string `json:"members,omitempty"`
	Sent    string   `json:"sent,omitempty"`
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "docs", "d1", testDoc{Name: "rex", Score: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got testDoc
	if err := m.Get(ctx, "docs", "d1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "rex" || got.Score != 2 {
		t.Fatalf("Get = %+v", got)
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	var got testDoc
	if err := m.Get(context.Background(), "docs", "nope", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_UpdateMissing(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), "docs", "nope", map[string]any{"name": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_UpdatePartial(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Set(ctx, "docs", "d1", testDoc{Name: "rex", Score: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Update(ctx, "docs", "d1", map[string]any{"name": "fido"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got testDoc
	if err := m.Get(ctx, "docs", "d1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "fido" {
		t.Fatalf("name = %q; want fido", got.Name)
	}
	if got.Score != 2 {
		t.Fatalf("untouched field changed: score = %v", got.Score)
	}
}

func TestMemory_DeleteMissingIsNoOp(t *testing.T) {
	m := NewMemory()
	if err := m.Delete(context.Background(), "docs", "nope"); err != nil {
		t.Fatalf("Delete of missing doc: %v", err)
	}
}

func TestMemory_QueryEq(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "docs", "a", testDoc{Name: "rex"})
	m.Set(ctx, "docs", "b", testDoc{Name: "milo"})
	m.Set(ctx, "docs", "c", testDoc{Name: "rex"})

	docs, err := m.Query(ctx, "docs", Query{Eq: map[string]any{"name": "rex"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs; want 2", len(docs))
	}
}

func TestMemory_QueryContains(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "chats", "c1", testDoc{Members: []string{"a@x.com", "b@y.com"}})
	m.Set(ctx, "chats", "c2", testDoc{Members: []string{"b@y.com", "c@z.com"}})

	docs, err := m.Query(ctx, "chats", Query{Contains: map[string]any{"members": "a@x.com"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "c1" {
		t.Fatalf("got %v docs; want only c1", len(docs))
	}
}

func TestMemory_QueryOrderByTimestamp(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Insertion order deliberately differs from timestamp order, and two
	// values share the same second with different fractions.
	m.Set(ctx, "msgs", "m2", testDoc{Name: "second", Sent: base.Add(500 * time.Millisecond).Format(time.RFC3339Nano)})
	m.Set(ctx, "msgs", "m3", testDoc{Name: "third", Sent: base.Add(2 * time.Second).Format(time.RFC3339Nano)})
	m.Set(ctx, "msgs", "m1", testDoc{Name: "first", Sent: base.Format(time.RFC3339Nano)})

	docs, err := m.Query(ctx, "msgs", Query{OrderBy: "sent"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var names []string
	for _, d := range docs {
		var td testDoc
		if err := d.DataTo(&td); err != nil {
			t.Fatalf("DataTo: %v", err)
		}
		names = append(names, td.Name)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order = %v; want %v", names, want)
		}
	}

	docs, err = m.Query(ctx, "msgs", Query{OrderBy: "sent", Desc: true})
	if err != nil {
		t.Fatalf("Query desc: %v", err)
	}
	var first testDoc
	if err := docs[0].DataTo(&first); err != nil {
		t.Fatalf("DataTo: %v", err)
	}
	if first.Name != "third" {
		t.Fatalf("desc first = %q; want third", first.Name)
	}
}

func TestMemory_SubscribeInitialSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "docs", "d1", testDoc{Name: "rex"})

	sub, err := m.Subscribe(ctx, "docs", Query{})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case docs := <-sub.Updates():
		if len(docs) != 1 {
			t.Fatalf("initial snapshot has %d docs; want 1", len(docs))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestMemory_SubscribeLatestWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sub, err := m.Subscribe(ctx, "docs", Query{})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	// Nobody reads between these writes; the pending snapshot must be the
	// final state, not an intermediate one.
	m.Set(ctx, "docs", "d1", testDoc{Name: "a"})
	m.Set(ctx, "docs", "d2", testDoc{Name: "b"})
	m.Set(ctx, "docs", "d3", testDoc{Name: "c"})

	select {
	case docs := <-sub.Updates():
		if len(docs) != 3 {
			t.Fatalf("latest snapshot has %d docs; want 3", len(docs))
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestMemory_SubscriptionCloseIdempotent(t *testing.T) {
	m := NewMemory()
	sub, err := m.Subscribe(context.Background(), "docs", Query{})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	sub.Close()
	sub.Close() // must not panic

	if _, open := <-sub.Updates(); open {
		// Drain the pre-close snapshot, then the channel must be closed.
		if _, open := <-sub.Updates(); open {
			t.Fatal("updates channel still open after Close")
		}
	}

	// Writes after Close must not panic or deliver.
	if err := m.Set(context.Background(), "docs", "d1", testDoc{Name: "x"}); err != nil {
		t.Fatalf("Set after close: %v", err)
	}
}

// Readers decode documents after the store's lock is released, so partial
// updates must never touch a stored map in place. Run with -race.
func TestMemory_ConcurrentReadersAndUpdates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Set(ctx, "docs", "d1", testDoc{Name: "rex", Score: 0}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	sub, err := m.Subscribe(ctx, "docs", Query{})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if err := m.Update(ctx, "docs", "d1", map[string]any{"score": i}); err != nil {
				t.Errorf("Update: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			var got testDoc
			if err := m.Get(ctx, "docs", "d1", &got); err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if got.Name != "rex" {
				t.Errorf("name = %q; want rex", got.Name)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case docs, open := <-sub.Updates():
				if !open {
					return
				}
				for _, d := range docs {
					var got testDoc
					if err := d.DataTo(&got); err != nil {
						t.Errorf("DataTo: %v", err)
						return
					}
				}
			}
		}
	}()

	time.Sleep(50 * time.Millisecond)
	close(done)
	wg.Wait()

	var got testDoc
	if err := m.Get(ctx, "docs", "d1", &got); err != nil {
		t.Fatalf("Get after churn: %v", err)
	}
	if got.Name != "rex" {
		t.Fatalf("name = %q; want rex", got.Name)
	}
}

func TestMemory_AddGeneratesDistinctIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id1, err := m.Add(ctx, "docs", testDoc{Name: "a"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	id2, err := m.Add(ctx, "docs", testDoc{Name: "b"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("ids not distinct: %q, %q", id1, id2)
	}
}
