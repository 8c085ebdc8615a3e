package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/auth"
	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/service"
	"github.com/Totarae/scanlink/internal/util"
)

// ScanResolver атомарное разрешение ссылки на основном домене.
type ScanResolver interface {
	ResolveAndCount(ctx context.Context, shortID string) (model.Resolution, error)
}

// Pinger проверка доступности хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler HTTP-обработчики публичного редиректа, API владельца и хуков биллинга.
type Handler struct {
	Links    *service.LinkService
	Domains  *service.DomainService
	Accounts *service.AccountService
	Resolver ScanResolver
	Store    Pinger
	Logger   *zap.Logger
}

// NewHandler создаёт обработчик
func NewHandler(store Pinger, resolver ScanResolver, links *service.LinkService, domains *service.DomainService,
	accounts *service.AccountService, logger *zap.Logger) *Handler {
	return &Handler{
		Links:    links,
		Domains:  domains,
		Accounts: accounts,
		Resolver: resolver,
		Store:    store,
		Logger:   logger,
	}
}

// Ping проверяет соединение с хранилищем
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Error("Хранилище недоступно", zap.Error(err))
		http.Error(w, "Storage unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Redirect обрабатывает скан на основном домене: 302 на назначение,
// 404 для неизвестной ссылки, 429 со страницей лимита.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")
	if !util.ValidShortID(shortID) {
		http.NotFound(w, r)
		return
	}

	res, err := h.Resolver.ResolveAndCount(r.Context(), shortID)
	if err != nil {
		// Скан не учтён, редиректа нет.
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	switch res.Outcome {
	case model.OutcomeRedirect:
		http.Redirect(w, r, res.Destination, http.StatusFound)
	case model.OutcomeLimitReached:
		h.LimitReached(w, r)
	default:
		http.NotFound(w, r)
	}
}

// errorResponse тело ошибки API.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	Tier    model.Tier `json:"tier,omitempty"`
	Current int64      `json:"current,omitempty"`
	Limit   int64      `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError сопоставляет ошибку сервиса коду ответа.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var qe *service.QuotaError
	switch {
	case errors.As(err, &qe):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:   "quota_exceeded",
			Message: qe.Error(),
			Tier:    qe.Tier,
			Current: qe.Current,
			Limit:   qe.Limit,
		})
	case errors.Is(err, service.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrModeNotAllowed):
		writeAPIError(w, http.StatusForbidden, "mode_not_allowed", err.Error())
	case errors.Is(err, service.ErrDomainTaken):
		writeAPIError(w, http.StatusConflict, "domain_taken", err.Error())
	case errors.Is(err, service.ErrAlreadyVerified):
		writeAPIError(w, http.StatusConflict, "already_verified", err.Error())
	case errors.Is(err, service.ErrInvalidDomain):
		writeAPIError(w, http.StatusBadRequest, "invalid_domain", err.Error())
	case errors.Is(err, service.ErrInvalidURL):
		writeAPIError(w, http.StatusBadRequest, "invalid_url", err.Error())
	case errors.Is(err, service.ErrInvalidTier):
		writeAPIError(w, http.StatusBadRequest, "invalid_tier", err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeAPIError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	default:
		h.Logger.Error("Внутренняя ошибка",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON читает тело запроса; при ошибке сам пишет 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeAPIError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

// owner достаёт владельца, положенного auth.Middleware.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "missing owner identity")
	}
	return id, ok
}
