package http

import (
	"net/http"

	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/httpx"
)

const msgLoggedIn = "Login successful"

type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister creates a new account.
//
//	@Summary		Register a user
//	@Description	Creates an account with role USER. email_address is optional but must be well formed when present.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Registration details"
//	@Success		200		{object}	authsdk.MessageResponse	"Registered successfully"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Username already taken"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, service.AsValidationError(err))
		return
	}

	msg, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.EmailAddress,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Status: http.StatusOK, Message: msg})
}

// HandleLogin exchanges credentials for a bearer token.
//
//	@Summary		Log in
//	@Description	Verifies the credentials and returns an HS256 token valid for 10 hours.
//	@Description	When the server requires email binding, email_address must equal the registered address.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Token issued"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, service.AsValidationError(err))
		return
	}

	token, err := h.AuthService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.EmailAddress,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Status:  http.StatusOK,
		Token:   token,
		Message: msgLoggedIn,
	})
}

// HandleMe describes the caller's token.
//
//	@Summary		Current identity
//	@Description	Returns the username, role and validity window decoded from the bearer token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"Decoded identity"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Missing or malformed Authorization header"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or expired token"
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrInvalidToken)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		Status:     http.StatusOK,
		Username:   id.Subject,
		Role:       id.Role,
		IssuedAt:   id.IssuedAt,
		Expiration: id.ExpiresAt,
	})
}
