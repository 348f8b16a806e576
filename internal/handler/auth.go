package handler

import (
	"fmt"
	"net/http"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleToken handles GET /token requests authenticated with HTTP Basic.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok {
		writeError(w, r, service.ErrInvalidCredentials)
		return
	}

	h.issueToken(w, r, username, password)
}

// HandleLogin handles POST /login requests carrying JSON credentials.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.issueToken(w, r, req.Username, req.Password)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, username, password string) {
	token, err := h.service.Authenticate(r.Context(), username, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.TokenResponse{Token: token})
}

// HandleRegister handles POST /registro requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleRoot handles GET / requests: it confirms which account a token belongs to.
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromContext(r.Context())

	account, err := h.service.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("valid token for user: %s", account.Username),
	})
}
