package http

import (
	"net/http"

	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/httpx"
)

type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleUpdate replaces the caller's profile.
//
//	@Summary		Update profile
//	@Description	Creates the caller's profile or overwrites every field of the existing one.
//	@Tags			Profile
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ProfileUpdateRequest	true	"Profile fields; date_of_birth is YYYY-MM-DD"
//	@Success		200		{object}	authsdk.MessageResponse			"Profile updated successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Validation failed or missing header"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or expired token"
//	@Failure		404		{object}	authsdk.ErrorResponse			"User not found"
//	@Router			/api/me/update [post].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrInvalidToken)
		return
	}

	var req authsdk.ProfileUpdateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, service.AsValidationError(err))
		return
	}

	msg, err := h.ProfileService.UpdateProfile(r.Context(), id, service.ProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PlaceOfBirth: req.PlaceOfBirth,
		DateOfBirth:  req.DateOfBirth,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Status: http.StatusOK, Message: msg})
}

// HandleGet returns the caller's profile.
//
//	@Summary		Get profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse	"Stored profile"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Missing or malformed Authorization header"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or expired token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No profile stored"
//	@Router			/api/me/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrInvalidToken)
		return
	}

	p, err := h.ProfileService.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
		Status: http.StatusOK,
		Data: authsdk.ProfileData{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			PlaceOfBirth: p.PlaceOfBirth,
			DateOfBirth:  p.DateOfBirthString(),
			UpdatedAt:    p.UpdatedAt,
		},
	})
}
