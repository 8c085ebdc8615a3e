package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Totarae/scanlink/internal/model"
)

// ListDomains GET /api/domains
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	stats, err := h.Domains.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := make([]model.DomainResponse, 0, len(stats))
	for _, s := range stats {
		resp = append(resp, model.NewDomainResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// domainCreatedResponse домен и запись, которую владелец должен опубликовать.
type domainCreatedResponse struct {
	model.DomainResponse
	ExpectedRecord model.DNSRecord `json:"expected_record"`
}

// RegisterDomain POST /api/domains
func (h *Handler) RegisterDomain(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req model.RegisterDomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.Domains.Register(r.Context(), ownerID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domainCreatedResponse{
		DomainResponse: model.NewDomainResponse(model.DomainStats{CustomDomain: *d}),
		ExpectedRecord: h.Domains.ExpectedRecord(d),
	})
}

// DeleteDomain DELETE /api/domains/{id}
func (h *Handler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.Domains.Unregister(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyDomain POST /api/domains/{id}/verify
// Неудачная проверка DNS отдаётся как 400 с диагностикой, а не как ошибка сервера.
func (h *Handler) VerifyDomain(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	res, err := h.Domains.Verify(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Status != model.VerificationSuccess {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}
