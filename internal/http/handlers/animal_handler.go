// Animal HTTP handlers.
//
// This file exposes the pet catalog:
//   - GET    /animals        (browse; optional species and search filters)
//   - GET    /animals/mine   (the caller's own listings)
//   - GET    /animals/{id}   (single listing)
//   - POST   /animals        (create a listing owned by the caller)
//   - DELETE /animals/{id}   (delete own listing; favorites copies survive)
//   - GET    /species        (external species reference list)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

// CreateAnimalRequest is the JSON payload for listing a pet. Owner email is
// taken from the authenticated caller, never from the payload.
type CreateAnimalRequest struct {
	Name              string   `json:"name" binding:"required" example:"Rex"`
	Species           string   `json:"species" binding:"required" example:"Dog"`
	Gender            string   `json:"gender" example:"male"`
	Weight            *float64 `json:"weight,omitempty" example:"12.5"`
	Birthday          string   `json:"birthday" example:"2021-04-01"`
	ImageURL          string   `json:"imageUrl" example:"https://storage.googleapis.com/petty/rex.jpg"`
	InsuranceProvider string   `json:"insuranceProvider" example:"PetSure"`
	PolicyNumber      string   `json:"policyNumber" example:"PS-10443"`
}

// CreateAnimalResponse returns the generated listing id.
type CreateAnimalResponse struct {
	ID string `json:"id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// ListAnimals godoc
// @ID          listAnimals
// @Summary     Browse the pet catalog
// @Description Returns listings, optionally narrowed by exact species and a case-insensitive name search.
// @Tags        Animals
// @Produce     json
// @Param       species  query  string  false  "Exact species filter"  example(Dog)
// @Param       search   query  string  false  "Name substring filter" example(rex)
// @Success     200  {array}   domain.Animal
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /animals [get]
func (h *Handlers) ListAnimals(c *gin.Context) {
	species := c.Query("species")
	animals, err := h.animalSvc.List(c.Request.Context(), species)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list animals")
		return
	}
	// The store already filtered species; the name search runs in memory.
	animals = services.Filter(animals, c.Query("search"), "")
	ok(c, http.StatusOK, animals)
}

// ListMyAnimals godoc
// @ID          listMyAnimals
// @Summary     List the caller's own pets
// @Tags        Animals
// @Produce     json
// @Success     200  {array}   domain.Animal
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /animals/mine [get]
func (h *Handlers) ListMyAnimals(c *gin.Context) {
	animals, err := h.animalSvc.ListByOwner(c.Request.Context(), userEmail(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list animals")
		return
	}
	ok(c, http.StatusOK, animals)
}

// GetAnimal godoc
// @ID          getAnimal
// @Summary     Fetch one listing
// @Tags        Animals
// @Produce     json
// @Param       id  path  string  true  "Animal ID"
// @Success     200  {object}  domain.Animal
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Animal not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /animals/{id} [get]
func (h *Handlers) GetAnimal(c *gin.Context) {
	a, err := h.animalSvc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrAnimalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "animal not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch animal")
		return
	}
	ok(c, http.StatusOK, a)
}

// CreateAnimal godoc
// @ID          createAnimal
// @Summary     List a pet
// @Description Creates a listing owned by the authenticated caller.
// @Tags        Animals
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateAnimalRequest  true  "Listing payload"
// @Success     201  {object}  handlers.CreateAnimalResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /animals [post]
func (h *Handlers) CreateAnimal(c *gin.Context) {
	var req CreateAnimalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	id, err := h.animalSvc.Create(c.Request.Context(), domain.Animal{
		Name:              req.Name,
		Species:           req.Species,
		Gender:            req.Gender,
		Weight:            req.Weight,
		Birthday:          req.Birthday,
		ImageURL:          req.ImageURL,
		InsuranceProvider: req.InsuranceProvider,
		PolicyNumber:      req.PolicyNumber,
		OwnerEmail:        userEmail(c),
	})
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and species are required")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create animal")
		return
	}
	ok(c, http.StatusCreated, CreateAnimalResponse{ID: id})
}

// DeleteAnimal godoc
// @ID          deleteAnimal
// @Summary     Delete a listing
// @Description Deletes a listing owned by the caller. Favorites copies held by other users are not cleaned up; their owners see them flagged as orphaned.
// @Tags        Animals
// @Param       id  path  string  true  "Animal ID"
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Animal not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /animals/{id} [delete]
func (h *Handlers) DeleteAnimal(c *gin.Context) {
	err := h.animalSvc.Delete(c.Request.Context(), c.Param("id"), userEmail(c))
	switch {
	case errors.Is(err, services.ErrAnimalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "animal not found")
		return
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not the owner of this animal")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete animal")
		return
	}
	noContent(c)
}

// ListSpecies godoc
// @ID          listSpecies
// @Summary     Fetch the species reference list
// @Description Proxies the external species catalog used to annotate listings.
// @Tags        Animals
// @Produce     json
// @Success     200  {array}   domain.Species
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     502  {object}  handlers.ErrorResponse "Catalog unavailable"
// @Router      /species [get]
func (h *Handlers) ListSpecies(c *gin.Context) {
	catalog, err := h.catalog.Fetch(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeListFailed, "species catalog unavailable")
		return
	}
	ok(c, http.StatusOK, catalog)
}
