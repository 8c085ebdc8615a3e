package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/util"
)

// DomainRouter разрешает ссылку, пришедшую на кастомный домен.
type DomainRouter interface {
	RouteOnDomain(ctx context.Context, host, shortID string) (model.Resolution, error)
}

// HostRouting обслуживает запросы к кастомным доменам до основного роутера.
// Основной домен и localhost проходят дальше без изменений. Любой другой хост
// получает редирект на ссылку, страницу лимита или, во всех остальных случаях,
// редирект на тот же путь основного домена.
func HostRouting(router DomainRouter, primaryHost, baseURL string, limitPage http.Handler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := util.NormalizeHost(r.Host)
			if host == "" || host == primaryHost || util.IsLoopbackHost(host) {
				next.ServeHTTP(w, r)
				return
			}

			toPrimary := func() {
				http.Redirect(w, r, util.JoinURL(baseURL, r.URL.RequestURI()), http.StatusFound)
			}

			shortID, ok := util.ShortIDFromPath(r.URL.Path)
			if !ok || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
				toPrimary()
				return
			}
			// Невалидный хост в хранилище не попадает.
			if _, ok := util.NormalizeDomain(host); !ok {
				toPrimary()
				return
			}

			res, err := router.RouteOnDomain(r.Context(), host, shortID)
			if err != nil {
				logger.Error("Ошибка маршрутизации по домену",
					zap.String("host", host),
					zap.String("short_id", shortID),
					zap.Error(err))
				toPrimary()
				return
			}

			switch res.Outcome {
			case model.OutcomeRedirect:
				http.Redirect(w, r, res.Destination, http.StatusFound)
			case model.OutcomeLimitReached:
				limitPage.ServeHTTP(w, r)
			default:
				toPrimary()
			}
		})
	}
}
