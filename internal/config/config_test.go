package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.ServerAddress)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "localhost", cfg.PrimaryHost)
	assert.Equal(t, ModeMemory, cfg.Mode)
	assert.Equal(t, "_scanlink-verification", cfg.VerificationPrefix)
	assert.Equal(t, 5*time.Second, cfg.DNSTimeout)
	assert.Equal(t, 10, cfg.VerifyRateLimit)
	assert.False(t, cfg.Production())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("BASE_URL", "https://ScanLink.io:8443")
	t.Setenv("SQLITE_PATH", "/tmp/scanlink.db")
	t.Setenv("DNS_TIMEOUT", "2s")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load([]string{"-a", ":9090", "-t", "10.0.0.0/8"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "scanlink.io", cfg.PrimaryHost)
	assert.Equal(t, ModeSQLite, cfg.Mode)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, 2*time.Second, cfg.DNSTimeout)
	assert.True(t, cfg.Production())

	cfg, err = Load([]string{"-d", "postgres://u:p@localhost/db"})
	require.NoError(t, err)
	assert.Equal(t, ModeDatabase, cfg.Mode)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"base_url": "https://qr.example.com",
		"grpc_address": ":3200",
		"verify_rate_limit": 3
	}`), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "qr.example.com", cfg.PrimaryHost)
	assert.Equal(t, ":3200", cfg.GRPCAddress)
	assert.Equal(t, 3, cfg.VerifyRateLimit)

	t.Setenv("BASE_URL", "https://env.example.com")
	cfg, err = Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cfg.PrimaryHost)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]string{"-t", "not-a-cidr"})
	assert.Error(t, err)

	_, err = Load([]string{"-b", "ftp://files.example.com"})
	assert.Error(t, err)

	_, err = Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
