package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/auth"
	"github.com/Totarae/scanlink/internal/handlers"
	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/service"
	"github.com/Totarae/scanlink/internal/storage/memory"
	"github.com/Totarae/scanlink/internal/verification"
)

type txtByName map[string][]string

func (m txtByName) LookupTXT(_ context.Context, name string) ([]string, error) {
	return m[name], nil
}

type testServer struct {
	handler http.Handler
	auth    *auth.Auth
	store   *memory.Store
	dns     txtByName
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	logger := zap.NewNop()
	dns := txtByName{}
	engine := verification.NewEngine(dns, "_scanlink-verification", time.Second, logger)
	resolver := service.NewResolver(store, logger)
	h := handlers.NewHandler(store, resolver,
		service.NewLinkService(store, logger, "https://scanlink.io"),
		service.NewDomainService(store, engine, nil, logger, "scanlink.io"),
		service.NewAccountService(store, logger),
		logger)
	a := auth.New("test-secret")

	return &testServer{
		handler: NewRouter(h, resolver, a, Options{
			PrimaryHost:   "scanlink.io",
			BaseURL:       "https://scanlink.io",
			TrustedSubnet: "10.0.0.0/8",
		}, logger),
		auth:  a,
		store: store,
		dns:   dns,
	}
}

func (s *testServer) do(t *testing.T, method, host, target, body, ownerID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Host = host
	if ownerID != "" {
		token, err := s.auth.IssueToken(ownerID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_Unauthorized(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "scanlink.io", "/api/links", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PrimaryDomainFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "scanlink.io", "/ping", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "scanlink.io", "/api/links", `{"url":"https://example.com"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.CreateLinkResponse](t, rec)

	rec = s.do(t, http.MethodGet, "scanlink.io", "/"+created.ShortID, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "localhost:8080", "/"+created.ShortID, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = s.do(t, http.MethodGet, "scanlink.io", "/nothing1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "scanlink.io", "/api/usage", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[model.UsageSummary](t, rec).Scans.Current)
}

// Кастомный домен в режиме routing: привязанная ссылка уходит на назначение,
// чужие пути и непривязанные ссылки возвращаются на основной домен.
func TestRouter_CustomDomainRouting(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.SetTier(ctx, "alice", model.TierPro))

	rec := s.do(t, http.MethodPost, "scanlink.io", "/api/domains", `{"domain":"qr.acme.com","mode":"routing"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dom := decode[model.DomainResponse](t, rec)

	// До верификации домен трафик не обслуживает.
	rec = s.do(t, http.MethodGet, "qr.acme.com", "/abc12345", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://scanlink.io/abc12345", rec.Header().Get("Location"))

	s.dns["_scanlink-verification.qr.acme.com"] = []string{"v=other", dom.VerificationToken}
	rec = s.do(t, http.MethodPost, "scanlink.io", "/api/domains/"+dom.ID+"/verify", "", "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "scanlink.io", "/api/links",
		`{"url":"https://acme.com/menu","custom_domain_id":"`+dom.ID+`"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bound := decode[model.CreateLinkResponse](t, rec)
	assert.Equal(t, "https://qr.acme.com/"+bound.ShortID, bound.ShortURL)

	rec = s.do(t, http.MethodPost, "scanlink.io", "/api/links", `{"url":"https://acme.com/plain"}`, "alice")
	require.Equal(t, http.StatusCreated, rec.Code)
	plain := decode[model.CreateLinkResponse](t, rec)

	rec = s.do(t, http.MethodGet, "QR.ACME.COM:443", "/"+bound.ShortID, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://acme.com/menu", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "qr.acme.com", "/"+plain.ShortID, "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://scanlink.io/"+plain.ShortID, rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "qr.acme.com", "/api/links", "", "alice")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://scanlink.io/api/links", rec.Header().Get("Location"))

	// После удаления домена ссылка работает только на основном домене.
	rec = s.do(t, http.MethodDelete, "scanlink.io", "/api/domains/"+dom.ID, "", "alice")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "qr.acme.com", "/"+bound.ShortID, "", "")
	assert.Equal(t, "https://scanlink.io/"+bound.ShortID, rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "scanlink.io", "/"+bound.ShortID, "", "")
	assert.Equal(t, "https://acme.com/menu", rec.Header().Get("Location"))
}

func TestRouter_UnknownHost(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "unknown.example.org", "/abc12345?x=1", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://scanlink.io/abc12345?x=1", rec.Header().Get("Location"))
}

func TestRouter_BillingTrustedSubnet(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/internal/billing/owners/alice/tier", strings.NewReader(`{"tier":"pro"}`))
	req.Host = "scanlink.io"
	req.RemoteAddr = "203.0.113.7:4000"
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/internal/billing/owners/alice/tier", strings.NewReader(`{"tier":"pro"}`))
	req.Host = "scanlink.io"
	req.Header.Set("X-Real-IP", "10.20.30.40")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	acc, err := s.store.GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.TierPro, acc.Tier)
}
