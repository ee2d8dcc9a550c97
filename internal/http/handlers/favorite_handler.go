// Favorites HTTP handlers.
//
// Favorites are denormalized copies of animal listings stored under the
// user. Because the copy survives deletion of the live listing, the GET
// endpoint partitions the list into still-valid entries and orphans instead
// of silently hiding stale data.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

// FavoritesResponse splits the caller's favorites by validity. Orphaned
// entries reference animals that no longer exist; clients render them
// greyed out with a remove affordance.
type FavoritesResponse struct {
	Valid    []domain.Animal `json:"valid"`
	Orphaned []domain.Animal `json:"orphaned"`
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List the caller's favorites
// @Description Returns favorites partitioned into valid and orphaned entries. Every entry is checked against the live animal collection on each call.
// @Tags        Favorites
// @Produce     json
// @Success     200  {object}  handlers.FavoritesResponse
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	checker := h.favoritesFor(userID(c))
	if err := checker.Fetch(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list favorites")
		return
	}
	valid, orphaned := checker.Partition()
	ok(c, http.StatusOK, FavoritesResponse{Valid: valid, Orphaned: orphaned})
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Favorite an animal
// @Description Copies the animal into the caller's favorites, keyed by the animal id. Favoriting twice overwrites the copy.
// @Tags        Favorites
// @Param       animalID  path  string  true  "Animal ID"
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Animal not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/favorites/{animalID} [put]
func (h *Handlers) AddFavorite(c *gin.Context) {
	ctx := c.Request.Context()

	// The copy is taken from the live listing at favorite time; it is not
	// refreshed afterwards.
	a, err := h.animalSvc.Get(ctx, c.Param("animalID"))
	switch {
	case errors.Is(err, services.ErrAnimalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "animal not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch animal")
		return
	}

	if err := h.animalSvc.AddFavorite(ctx, userID(c), *a); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add favorite")
		return
	}
	noContent(c)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a favorite
// @Description Deletes one favorite entry, orphaned or not. The live animal is never touched. Removing an absent entry succeeds.
// @Tags        Favorites
// @Param       animalID  path  string  true  "Animal ID"
// @Success     204  {string}  string "No Content"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/favorites/{animalID} [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	checker := h.favoritesFor(userID(c))
	if err := checker.Remove(c.Request.Context(), c.Param("animalID")); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not remove favorite")
		return
	}
	noContent(c)
}
