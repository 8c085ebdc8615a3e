package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShortID(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := GenerateShortID()
		require.NoError(t, err)
		assert.Len(t, id, ShortIDLength)
		assert.True(t, ValidShortID(id), id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestGenerateVerificationToken(t *testing.T) {
	a, err := GenerateVerificationToken()
	require.NoError(t, err)
	b, err := GenerateVerificationToken()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestShortIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		id   string
		ok   bool
	}{
		{"/abc12345", "abc12345", true},
		{"/a_B-9", "a_B-9", true},
		{"/", "", false},
		{"/a/b", "", false},
		{"/abc.png", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		id, ok := ShortIDFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.id, id, tt.path)
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"qr.acme.com", "qr.acme.com", true},
		{"QR.Acme.COM.", "qr.acme.com", true},
		{"  go.example.org ", "go.example.org", true},
		{"localhost", "", false},
		{"-bad.com", "", false},
		{"bad-.com", "", false},
		{"under_score.com", "", false},
		{"a..b", "", false},
		{"10.0.0.1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDomain(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "qr.acme.com", NormalizeHost("QR.acme.com:443"))
	assert.Equal(t, "qr.acme.com", NormalizeHost("qr.acme.com."))
	assert.Equal(t, "::1", NormalizeHost("[::1]:8080"))
	assert.Equal(t, "localhost", NormalizeHost("localhost:8080"))
}

func TestIsLoopbackHost(t *testing.T) {
	assert.True(t, IsLoopbackHost("localhost"))
	assert.True(t, IsLoopbackHost("127.0.0.1"))
	assert.True(t, IsLoopbackHost("::1"))
	assert.False(t, IsLoopbackHost("qr.acme.com"))
}

func TestValidDestination(t *testing.T) {
	assert.True(t, ValidDestination("https://example.com"))
	assert.True(t, ValidDestination("http://example.com/path?q=1"))
	assert.False(t, ValidDestination("ftp://example.com"))
	assert.False(t, ValidDestination("example.com"))
	assert.False(t, ValidDestination(""))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://scan.link/abc12345", JoinURL("https://scan.link/", "/abc12345"))
	assert.Equal(t, "https://scan.link/", JoinURL("https://scan.link", ""))
	assert.Equal(t, "https://scan.link/x?y=1", JoinURL("https://scan.link", "x?y=1"))
}
