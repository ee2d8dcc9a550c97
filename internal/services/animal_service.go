// Package services – AnimalService
//
// This file implements the animal catalog: browsing and filtering other
// users' pets, listing one's own, adding and deleting listings, and the
// favorite/unfavorite writes that feed the consistency checker. Species is a
// free-form string; a mismatch with the external species catalog is
// tolerated everywhere.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// AnimalService provides catalog-level operations over the injected store.
// Safe for concurrent use.
type AnimalService struct {
	St store.Store
}

// NewAnimalService constructs an AnimalService over the given store.
func NewAnimalService(st store.Store) *AnimalService {
	return &AnimalService{St: st}
}

// List returns the catalog, optionally restricted to one species via the
// store's equality filter. Undecodable documents are dropped, not fatal.
func (s *AnimalService) List(ctx context.Context, species string) ([]domain.Animal, error) {
	tr := otel.Tracer("services/AnimalService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("animal.species", species)),
	)
	defer span.End()

	animals, dropped, err := repo.ListAnimals(ctx, s.St, species)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		droppedDocuments.WithLabelValues("animal").Add(float64(dropped))
	}
	return animals, nil
}

// ListByOwner returns every animal listed under ownerEmail.
func (s *AnimalService) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.Animal, error) {
	animals, dropped, err := repo.ListAnimalsByOwner(ctx, s.St, ownerEmail)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		droppedDocuments.WithLabelValues("animal").Add(float64(dropped))
	}
	return animals, nil
}

// Get fetches one animal or ErrAnimalNotFound.
func (s *AnimalService) Get(ctx context.Context, id string) (*domain.Animal, error) {
	a, err := repo.GetAnimal(ctx, s.St, id)
	if err == store.ErrNotFound {
		return nil, ErrAnimalNotFound
	}
	return a, err
}

// Create validates and stores a new listing, returning its generated id.
func (s *AnimalService) Create(ctx context.Context, a domain.Animal) (string, error) {
	if strings.TrimSpace(a.Name) == "" ||
		strings.TrimSpace(a.Species) == "" ||
		strings.TrimSpace(a.OwnerEmail) == "" {
		return "", ErrValidation
	}
	return repo.CreateAnimal(ctx, s.St, a)
}

// Delete removes a listing after checking it belongs to ownerEmail.
// Favorites that copied this animal stay behind as orphans by design.
func (s *AnimalService) Delete(ctx context.Context, id, ownerEmail string) error {
	a, err := repo.GetAnimal(ctx, s.St, id)
	if err == store.ErrNotFound {
		return ErrAnimalNotFound
	}
	if err != nil {
		return err
	}
	if a.OwnerEmail != ownerEmail {
		return ErrNotOwner
	}
	return repo.DeleteAnimal(ctx, s.St, id)
}

// AddFavorite writes the denormalized copy of animal into the user's
// favorites, keyed by the animal id.
func (s *AnimalService) AddFavorite(ctx context.Context, userID string, a domain.Animal) error {
	if a.ID == "" {
		return ErrMissingAnimalID
	}
	return repo.PutFavorite(ctx, s.St, userID, a)
}

// RemoveFavorite deletes one favorite entry without touching the live animal.
func (s *AnimalService) RemoveFavorite(ctx context.Context, userID, animalID string) error {
	if animalID == "" {
		return ErrMissingAnimalID
	}
	return repo.DeleteFavorite(ctx, s.St, userID, animalID)
}

// Filter narrows a fetched list by case-insensitive name substring and exact
// species, mirroring the in-memory search the catalog screen applies on top
// of the store query.
func Filter(animals []domain.Animal, search, species string) []domain.Animal {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Animal, 0, len(animals))
	for _, a := range animals {
		if species != "" && a.Species != species {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		out = append(out, a)
	}
	return out
}
