package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomDomain_VerificationIsOneWay(t *testing.T) {
	d := &CustomDomain{Domain: "qr.acme.com", Mode: ModeRouting}
	assert.Equal(t, StatePending, d.State())
	assert.Nil(t, d.VerifiedAt())
	assert.False(t, ServesTraffic(d))

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, d.MarkVerified(now))
	assert.True(t, d.Verified())
	assert.Equal(t, now, *d.VerifiedAt())
	assert.True(t, ServesTraffic(d))

	err := d.MarkVerified(now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Equal(t, now, *d.VerifiedAt())
}

func TestCustomDomain_RestoreVerification(t *testing.T) {
	d := &CustomDomain{Mode: ModeBranding}
	at := time.Now()
	d.RestoreVerification(&at)
	assert.Equal(t, StateVerified, d.State())
	assert.False(t, ServesTraffic(d), "branding domains never serve traffic")

	d.RestoreVerification(nil)
	assert.Equal(t, StatePending, d.State())
	assert.Nil(t, d.VerifiedAt())
}

func TestParseDomainMode(t *testing.T) {
	m, ok := ParseDomainMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeBranding, m)

	m, ok = ParseDomainMode("routing")
	assert.True(t, ok)
	assert.Equal(t, ModeRouting, m)

	_, ok = ParseDomainMode("proxy")
	assert.False(t, ok)
}
