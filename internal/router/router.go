package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/auth"
	"github.com/Totarae/scanlink/internal/handlers"
	"github.com/Totarae/scanlink/internal/middleware"
)

// Options параметры сборки маршрутизатора.
type Options struct {
	PrimaryHost   string
	BaseURL       string
	TrustedSubnet string
}

// NewRouter создаёт и настраивает маршрутизатор. Маршрутизация по кастомным
// доменам стоит перед chi, поэтому чужие хосты до маршрутов не доходят.
func NewRouter(handler *handlers.Handler, domains middleware.DomainRouter, authService *auth.Auth, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GzipMiddleware) // Gzip-сжатие

	r.Get("/ping", handler.Ping)
	r.Get("/scan-limit-reached", handler.ScanLimitPage)
	r.Get("/{shortId}", handler.Redirect)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authService.Middleware)

			r.Post("/links", handler.CreateLink)
			r.Get("/links", handler.ListLinks)
			r.Patch("/links/{shortId}", handler.UpdateLink)
			r.Delete("/links/{shortId}", handler.DeleteLink)

			r.Get("/domains", handler.ListDomains)
			r.Post("/domains", handler.RegisterDomain)
			r.Delete("/domains/{id}", handler.DeleteDomain)
			r.Post("/domains/{id}/verify", handler.VerifyDomain)

			r.Get("/usage", handler.Usage)
		})

		r.Route("/internal/billing", func(r chi.Router) {
			r.Use(middleware.TrustedSubnet(opts.TrustedSubnet, logger))

			r.Post("/reset", handler.ResetAllScans)
			r.Post("/owners/{ownerId}/reset", handler.ResetOwnerScans)
			r.Put("/owners/{ownerId}/tier", handler.SetTier)
		})
	})

	hostRouting := middleware.HostRouting(domains, opts.PrimaryHost, opts.BaseURL,
		http.HandlerFunc(handler.LimitReached), logger)

	// Логируем и запросы к кастомным доменам
	return middleware.LoggingMiddleware(logger)(hostRouting(r))
}
