package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/config"
	"github.com/Totarae/scanlink/internal/storage/memory"
	"github.com/Totarae/scanlink/internal/storage/sqlite"
)

func testConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, err := config.Load(append([]string{"-a", "127.0.0.1:0", "-b", "https://scanlink.io"}, args...))
	require.NoError(t, err)
	return cfg
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	store, err := openStorage(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	require.NoError(t, store.Close())

	path := filepath.Join(t.TempDir(), "scanlink.db")
	store, err = openStorage(ctx, testConfig(t, "-l", path), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t, "-g", "127.0.0.1:0", "-t", "10.0.0.0/8")
	a, cleanup, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, a.grpcServer)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Host = "scanlink.io"
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Host = "scanlink.io"
	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "-g", "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, cfg, zap.NewNop()))
}
