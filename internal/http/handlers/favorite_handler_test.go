package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

// ----- Fakes -----

type fakeFavChecker struct {
	fetchErr  error
	valid     []domain.Animal
	orphaned  []domain.Animal
	removedID string
	removeErr error
}

func (f *fakeFavChecker) Fetch(_ context.Context) error { return f.fetchErr }

func (f *fakeFavChecker) Partition() ([]domain.Animal, []domain.Animal) {
	return f.valid, f.orphaned
}

func (f *fakeFavChecker) Remove(_ context.Context, animalID string) error {
	f.removedID = animalID
	return f.removeErr
}

type fakeAnimalService struct {
	getAnimal *domain.Animal
	getErr    error
	favUser   string
	favAnimal domain.Animal
	favErr    error
}

func (f *fakeAnimalService) List(_ context.Context, _ string) ([]domain.Animal, error) {
	return nil, nil
}

func (f *fakeAnimalService) ListByOwner(_ context.Context, _ string) ([]domain.Animal, error) {
	return nil, nil
}

func (f *fakeAnimalService) Get(_ context.Context, _ string) (*domain.Animal, error) {
	return f.getAnimal, f.getErr
}

func (f *fakeAnimalService) Create(_ context.Context, _ domain.Animal) (string, error) {
	return "", nil
}

func (f *fakeAnimalService) Delete(_ context.Context, _, _ string) error { return nil }

func (f *fakeAnimalService) AddFavorite(_ context.Context, userID string, a domain.Animal) error {
	f.favUser, f.favAnimal = userID, a
	return f.favErr
}

func newFavTestRouter(animals AnimalService, checker FavoritesChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "uid-alice")
		c.Set("userEmail", "alice@x.com")
		c.Next()
	})
	h := New(nil, animals, nil, nil, nil,
		func(string) FavoritesChecker { return checker }, nil)
	r.GET("/me/favorites", h.ListFavorites)
	r.PUT("/me/favorites/:animalID", h.AddFavorite)
	r.DELETE("/me/favorites/:animalID", h.RemoveFavorite)
	return r
}

// ----- Tests -----

func TestListFavorites_PartitionsValidAndOrphaned(t *testing.T) {
	checker := &fakeFavChecker{
		valid:    []domain.Animal{{ID: "a2", Name: "Milo"}},
		orphaned: []domain.Animal{{ID: "a1", Name: "Rex"}},
	}
	r := newFavTestRouter(&fakeAnimalService{}, checker)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/favorites", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp FavoritesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Valid) != 1 || resp.Valid[0].ID != "a2" {
		t.Fatalf("valid = %+v", resp.Valid)
	}
	if len(resp.Orphaned) != 1 || resp.Orphaned[0].ID != "a1" {
		t.Fatalf("orphaned = %+v", resp.Orphaned)
	}
}

func TestListFavorites_FetchError(t *testing.T) {
	checker := &fakeFavChecker{fetchErr: errors.New("backend down")}
	r := newFavTestRouter(&fakeAnimalService{}, checker)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/favorites", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d; want 500", w.Code)
	}
}

func TestAddFavorite_CopiesLiveAnimal(t *testing.T) {
	animals := &fakeAnimalService{getAnimal: &domain.Animal{ID: "a1", Name: "Rex", OwnerEmail: "bob@y.com"}}
	r := newFavTestRouter(animals, &fakeFavChecker{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/me/favorites/a1", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if animals.favUser != "uid-alice" {
		t.Fatalf("favorite user = %q", animals.favUser)
	}
	if animals.favAnimal.ID != "a1" || animals.favAnimal.Name != "Rex" {
		t.Fatalf("favorite copy = %+v", animals.favAnimal)
	}
}

func TestAddFavorite_MissingAnimal(t *testing.T) {
	animals := &fakeAnimalService{getErr: services.ErrAnimalNotFound}
	r := newFavTestRouter(animals, &fakeFavChecker{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/me/favorites/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
}

func TestRemoveFavorite_OK(t *testing.T) {
	checker := &fakeFavChecker{}
	r := newFavTestRouter(&fakeAnimalService{}, checker)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/me/favorites/a1", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if checker.removedID != "a1" {
		t.Fatalf("removed id = %q", checker.removedID)
	}
}
