// Package services – FavoritesChecker
//
// This file implements the favorites consistency checker. A user's favorites
// are denormalized copies of animal documents taken at favorite time; the
// backend never deletes them when the underlying animal goes away. The
// checker cross-references the saved copies against the live catalog and
// classifies each entry as valid or orphaned. Orphans are detected, never
// auto-healed: removal stays an explicit user action.
package services

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// FavoritesChecker maintains one user's favorited-animal set and the ids
// whose live animal no longer exists. Safe for concurrent use; state writes
// are serialized by the mutex.
type FavoritesChecker struct {
	st     store.Store
	userID string

	mu        sync.Mutex
	favorites []domain.Animal
	invalid   map[string]struct{}
}

// NewFavoritesChecker builds a checker bound to one user.
func NewFavoritesChecker(st store.Store, userID string) *FavoritesChecker {
	return &FavoritesChecker{
		st:      st,
		userID:  userID,
		invalid: make(map[string]struct{}),
	}
}

// Fetch reloads the user's favorites from the store, replacing the local set
// with the denormalized copies, then runs a full validation pass.
func (c *FavoritesChecker) Fetch(ctx context.Context) error {
	tr := otel.Tracer("services/FavoritesChecker")
	ctx, span := tr.Start(ctx, "Fetch",
		trace.WithAttributes(attribute.String("user.id", c.userID)),
	)
	defer span.End()

	favorites, dropped, err := repo.ListFavorites(ctx, c.st, c.userID)
	if err != nil {
		return err
	}
	if dropped > 0 {
		droppedDocuments.WithLabelValues("favorite").Add(float64(dropped))
	}

	c.mu.Lock()
	c.favorites = favorites
	c.mu.Unlock()

	c.validate(ctx, favorites)
	return nil
}

// validate resets the invalid set and re-scans every favorite with one
// existence check against the live catalog. The scan is linear with no
// batching, which is fine for the small per-user favorite counts this app
// expects; it is a scalability limit, not a correctness one. Check failures
// are logged and the entry is left as-is (treated as valid until proven
// orphaned).
func (c *FavoritesChecker) validate(ctx context.Context, favorites []domain.Animal) {
	invalid := make(map[string]struct{})
	for _, a := range favorites {
		if a.ID == "" {
			continue
		}
		exists, err := repo.AnimalExists(ctx, c.st, a.ID)
		if err != nil {
			log.Warn().Err(err).Str("animal_id", a.ID).Msg("favorite validation check failed")
			continue
		}
		if !exists {
			invalid[a.ID] = struct{}{}
		}
	}
	orphanedFavorites.Observe(float64(len(invalid)))

	c.mu.Lock()
	c.invalid = invalid
	c.mu.Unlock()
}

// Remove deletes one favorite entry and optimistically drops it from both
// the local favorites set and the invalid set. The local state is not
// re-synced from the backend afterwards.
func (c *FavoritesChecker) Remove(ctx context.Context, animalID string) error {
	if animalID == "" {
		return ErrMissingAnimalID
	}
	if err := repo.DeleteFavorite(ctx, c.st, c.userID, animalID); err != nil {
		return err
	}
	c.mu.Lock()
	kept := c.favorites[:0]
	for _, a := range c.favorites {
		if a.ID != animalID {
			kept = append(kept, a)
		}
	}
	c.favorites = kept
	delete(c.invalid, animalID)
	c.mu.Unlock()
	return nil
}

// Favorites returns a copy of the denormalized favorite entries, including
// orphaned ones.
func (c *FavoritesChecker) Favorites() []domain.Animal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Animal, len(c.favorites))
	copy(out, c.favorites)
	return out
}

// InvalidIDs returns the sorted ids classified as orphaned by the most
// recent validation pass.
func (c *FavoritesChecker) InvalidIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.invalid))
	for id := range c.invalid {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Partition splits the favorites into the valid and orphaned views shown to
// the user; removal is available from both.
func (c *FavoritesChecker) Partition() (valid, orphaned []domain.Animal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.favorites {
		if _, bad := c.invalid[a.ID]; bad {
			orphaned = append(orphaned, a)
		} else {
			valid = append(valid, a)
		}
	}
	return valid, orphaned
}
