package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// GetAnimal fetches one animal by id.
func GetAnimal(ctx context.Context, st store.Store, id string) (*domain.Animal, error) {
	var a domain.Animal
	if err := st.Get(ctx, ColAnimals, id, &a); err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// AnimalExists reports whether the live animal document still exists. Used by
// the favorites consistency check.
func AnimalExists(ctx context.Context, st store.Store, id string) (bool, error) {
	var a domain.Animal
	err := st.Get(ctx, ColAnimals, id, &a)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateAnimal stores a new animal under a fresh id and returns it.
func CreateAnimal(ctx context.Context, st store.Store, a domain.Animal) (string, error) {
	a.ID = uuid.NewString()
	if err := st.Set(ctx, ColAnimals, a.ID, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// DeleteAnimal removes an animal document. Favorites that denormalized it are
// intentionally left in place; the consistency checker classifies them as
// orphaned instead of healing them.
func DeleteAnimal(ctx context.Context, st store.Store, id string) error {
	return st.Delete(ctx, ColAnimals, id)
}

// ListAnimals returns the animal catalog, optionally restricted to one
// species (equality filter, matching the hosted backend's capability).
func ListAnimals(ctx context.Context, st store.Store, species string) ([]domain.Animal, int, error) {
	q := store.Query{}
	if species != "" {
		q.Eq = map[string]any{"species": species}
	}
	docs, err := st.Query(ctx, ColAnimals, q)
	if err != nil {
		return nil, 0, err
	}
	animals, dropped := DecodeAnimals(docs)
	return animals, dropped, nil
}

// ListAnimalsByOwner returns all animals listed by one owner email.
func ListAnimalsByOwner(ctx context.Context, st store.Store, ownerEmail string) ([]domain.Animal, int, error) {
	docs, err := st.Query(ctx, ColAnimals, store.Query{
		Eq: map[string]any{"email": ownerEmail},
	})
	if err != nil {
		return nil, 0, err
	}
	animals, dropped := DecodeAnimals(docs)
	return animals, dropped, nil
}

// DecodeAnimals maps raw documents to animals, dropping undecodable entries
// and returning how many were dropped.
func DecodeAnimals(docs []store.Document) ([]domain.Animal, int) {
	out := make([]domain.Animal, 0, len(docs))
	dropped := 0
	for _, d := range docs {
		var a domain.Animal
		if err := d.DataTo(&a); err != nil {
			dropped++
			log.Warn().Err(err).Str("animal_id", d.ID).Msg("dropping undecodable animal document")
			continue
		}
		a.ID = d.ID
		out = append(out, a)
	}
	return out, dropped
}
