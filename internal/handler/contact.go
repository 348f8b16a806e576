package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/service"
)

// ContactHandler handles HTTP requests for contact operations.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

func bearer(r *http.Request) string {
	token, _ := middleware.TokenFromContext(r.Context())
	return token
}

func contactRef(r *http.Request) model.ContactRef {
	return model.ParseContactRef(chi.URLParam(r, "ref"))
}

// HandleCreate handles POST /contactos requests.
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), bearer(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// HandleList handles GET /contactos requests.
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.List(r.Context(), bearer(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// HandleSearch handles GET /contactos/buscar?email= requests.
func (h *ContactHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.Search(r.Context(), bearer(r), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

// HandleGet handles GET /contactos/{ref} requests, ref being an email or id.
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), bearer(r), contactRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// HandleUpdate handles PUT /contactos/{ref} requests.
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), bearer(r), contactRef(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// HandlePatch handles PATCH /contactos/{ref} requests.
func (h *ContactHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var patch model.ContactPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	c, err := h.service.Patch(r.Context(), bearer(r), contactRef(r), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /contactos/{ref} requests.
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Delete(r.Context(), bearer(r), contactRef(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteContactResponse{Message: "contact deleted", Contact: c})
}
