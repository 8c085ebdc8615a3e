package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Totarae/scanlink/internal/model"
)

// Usage GET /api/usage
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	summary, err := h.Accounts.Usage(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ResetAllScans POST /api/internal/billing/reset
func (h *Handler) ResetAllScans(w http.ResponseWriter, r *http.Request) {
	n, err := h.Accounts.ResetAllMonthlyScans(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"accounts": n})
}

// ResetOwnerScans POST /api/internal/billing/owners/{ownerId}/reset
func (h *Handler) ResetOwnerScans(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.ResetMonthlyScans(r.Context(), chi.URLParam(r, "ownerId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTier PUT /api/internal/billing/owners/{ownerId}/tier
func (h *Handler) SetTier(w http.ResponseWriter, r *http.Request) {
	var req model.SetTierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Accounts.SetTier(r.Context(), chi.URLParam(r, "ownerId"), req.Tier); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
