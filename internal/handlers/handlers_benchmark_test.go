package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/auth"
	"github.com/Totarae/scanlink/internal/handlers"
	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/router"
	"github.com/Totarae/scanlink/internal/service"
	"github.com/Totarae/scanlink/internal/storage/memory"
	"github.com/Totarae/scanlink/internal/verification"
)

func setupBenchmark(b *testing.B) (http.Handler, []string) {
	b.Helper()
	store := memory.New()
	logger := zap.NewNop()
	engine := verification.NewEngine(staticTXT{}, "_scanlink-verification", time.Second, logger)
	resolver := service.NewResolver(store, logger)
	h := handlers.NewHandler(store, resolver,
		service.NewLinkService(store, logger, "https://scanlink.io"),
		service.NewDomainService(store, engine, nil, logger, "scanlink.io"),
		service.NewAccountService(store, logger),
		logger)

	ctx := context.Background()
	if err := store.SetTier(ctx, "bench", model.TierEnterprise); err != nil {
		b.Fatal(err)
	}
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("bench%03d", i)
		link := &model.ShortLink{
			ID:             uuid.NewString(),
			ShortID:        ids[i],
			DestinationURL: "https://example.com/" + ids[i],
			OwnerID:        "bench",
		}
		if err := store.CreateLink(ctx, link, func(model.Tier, int64) error { return nil }); err != nil {
			b.Fatal(err)
		}
	}

	r := router.NewRouter(h, resolver, auth.New("bench-secret"), router.Options{
		PrimaryHost: "scanlink.io",
		BaseURL:     "https://scanlink.io",
	}, logger)
	return r, ids
}

// BenchmarkRedirect скан на основном домене через полный стек middleware.
func BenchmarkRedirect(b *testing.B) {
	r, ids := setupBenchmark(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/"+ids[i%len(ids)], nil)
		req.Host = "scanlink.io"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusFound {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

// BenchmarkRedirectParallel конкурентные сканы одних и тех же ссылок.
func BenchmarkRedirectParallel(b *testing.B) {
	r, ids := setupBenchmark(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/"+ids[i%len(ids)], nil)
			req.Host = "scanlink.io"
			r.ServeHTTP(httptest.NewRecorder(), req)
			i++
		}
	})
}

// BenchmarkRedirectHandler обработчик без роутера.
func BenchmarkRedirectHandler(b *testing.B) {
	store := memory.New()
	logger := zap.NewNop()
	h := handlers.NewHandler(store, service.NewResolver(store, logger), nil, nil, nil, logger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/missing1", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("shortId", "missing1")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		h.Redirect(httptest.NewRecorder(), req)
	}
}
