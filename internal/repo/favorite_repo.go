package repo

import (
	"context"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// PutFavorite writes a denormalized copy of the animal into the user's
// favorites subcollection. The entry is keyed by the animal id; that the key
// equals the copied animal's id is the invariant the consistency check
// relies on.
func PutFavorite(ctx context.Context, st store.Store, userID string, a domain.Animal) error {
	return st.Set(ctx, FavoritesCol(userID), a.ID, a)
}

// DeleteFavorite removes one favorite entry. Missing entries are a no-op.
func DeleteFavorite(ctx context.Context, st store.Store, userID, animalID string) error {
	return st.Delete(ctx, FavoritesCol(userID), animalID)
}

// ListFavorites returns the user's favorited animals (the copies taken at
// favorite time, which may be stale relative to the live catalog).
func ListFavorites(ctx context.Context, st store.Store, userID string) ([]domain.Animal, int, error) {
	docs, err := st.Query(ctx, FavoritesCol(userID), store.Query{})
	if err != nil {
		return nil, 0, err
	}
	animals, dropped := DecodeAnimals(docs)
	return animals, dropped, nil
}
