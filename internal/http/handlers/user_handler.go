// User profile HTTP handlers.
//
// This file exposes the profile surface:
//   - POST  /users             (register the profile after first sign-in)
//   - GET   /me                (the caller's profile)
//   - PATCH /me/nickname       (rename)
//   - PATCH /me/bio            (rewrite bio; empty allowed)
//   - POST  /me/profile-image  (upload image, then point the profile at it)
//   - GET   /users/lookup      (resolve by email or nickname)
//
// Lookup by nickname backs the login-by-nickname flow: the client resolves
// the nickname to its email, then authenticates with the identity provider
// using that email.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/services"
)

// maxProfileImageBytes bounds profile image uploads.
const maxProfileImageBytes = 5 << 20

// RegisterUserRequest is the JSON payload for creating the profile document.
// The uid and email come from the verified token, never from the payload.
type RegisterUserRequest struct {
	Nickname string `json:"nickname" binding:"required" example:"alice"`
}

// UpdateNicknameRequest is the JSON payload for renaming the caller.
type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required" example:"alice2"`
}

// UpdateBioRequest is the JSON payload for rewriting the caller's bio.
type UpdateBioRequest struct {
	Bio string `json:"bio" example:"Dog person. Three rescues."`
}

// ProfileImageResponse returns the public URL of an uploaded profile image.
type ProfileImageResponse struct {
	URL string `json:"url" example:"https://storage.googleapis.com/petty/profile_images/uid123.jpg"`
}

// Register godoc
// @ID          registerUser
// @Summary     Create the caller's profile
// @Description Creates the profile document for a freshly authenticated account. Email is copied from the verified token and is immutable afterwards.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterUserRequest  true  "Profile payload"
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), userID(c), userEmail(c), strings.TrimSpace(req.Nickname))
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nickname is required")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create profile")
		return
	}
	ok(c, http.StatusCreated, u)
}

// Me godoc
// @ID          getMe
// @Summary     Fetch the caller's profile
// @Tags        Users
// @Produce     json
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not registered"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), userID(c))
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not registered")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch profile")
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateNickname godoc
// @ID          updateNickname
// @Summary     Rename the caller
// @Tags        Users
// @Accept      json
// @Param       body  body  handlers.UpdateNicknameRequest  true  "New nickname"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not registered"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/nickname [patch]
func (h *Handlers) UpdateNickname(c *gin.Context) {
	var req UpdateNicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.applyProfileUpdate(c, h.userSvc.UpdateNickname(c.Request.Context(), userID(c), strings.TrimSpace(req.Nickname)))
}

// UpdateBio godoc
// @ID          updateBio
// @Summary     Rewrite the caller's bio
// @Tags        Users
// @Accept      json
// @Param       body  body  handlers.UpdateBioRequest  true  "New bio (empty allowed)"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not registered"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/bio [patch]
func (h *Handlers) UpdateBio(c *gin.Context) {
	var req UpdateBioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	h.applyProfileUpdate(c, h.userSvc.UpdateBio(c.Request.Context(), userID(c), req.Bio))
}

// UploadProfileImage godoc
// @ID          uploadProfileImage
// @Summary     Upload a profile image
// @Description Uploads the image to blob storage under the caller's uid, then points the profile at its public URL.
// @Tags        Users
// @Accept      mpfd
// @Produce     json
// @Param       image  formData  file  true  "Image file (max 5 MiB)"
// @Success     200  {object}  handlers.ProfileImageResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not registered"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /me/profile-image [post]
func (h *Handlers) UploadProfileImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image file is required")
		return
	}
	if fh.Size > maxProfileImageBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image exceeds 5 MiB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not read image")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxProfileImageBytes))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not read image")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.uploader.Upload(ctx, data, fmt.Sprintf("profile_images/%s.jpg", uid), contentType)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not upload image")
		return
	}

	if err := h.userSvc.UpdateProfileImageURL(ctx, uid, url); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not registered")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update profile")
		return
	}
	ok(c, http.StatusOK, ProfileImageResponse{URL: url})
}

// Lookup godoc
// @ID          lookupUser
// @Summary     Resolve a user by email or nickname
// @Description Exactly one of email or nickname must be supplied. Nicknames are not unique; the first match wins.
// @Tags        Users
// @Produce     json
// @Param       email     query  string  false  "Account email"
// @Param       nickname  query  string  false  "Display name"
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse "User not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users/lookup [get]
func (h *Handlers) Lookup(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	nickname := strings.TrimSpace(c.Query("nickname"))
	if (email == "") == (nickname == "") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "supply exactly one of email or nickname")
		return
	}

	var (
		u   interface{}
		err error
	)
	if email != "" {
		u, err = h.userSvc.FindByEmail(c.Request.Context(), email)
	} else {
		u, err = h.userSvc.FindByNickname(c.Request.Context(), nickname)
	}
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not look up user")
		return
	}
	ok(c, http.StatusOK, u)
}

// applyProfileUpdate maps a profile-update error to the HTTP response.
func (h *Handlers) applyProfileUpdate(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid value")
		return
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not registered")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update profile")
		return
	}
	noContent(c)
}
