package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Totarae/scanlink/internal/model"
)

// CreateLink POST /api/links
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req model.CreateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Links.Create(r.Context(), ownerID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListLinks GET /api/links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	links, err := h.Links.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// UpdateLink PATCH /api/links/{shortId}
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req model.UpdateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	link, err := h.Links.Update(r.Context(), ownerID, chi.URLParam(r, "shortId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// DeleteLink DELETE /api/links/{shortId}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.Links.Delete(r.Context(), ownerID, chi.URLParam(r, "shortId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
