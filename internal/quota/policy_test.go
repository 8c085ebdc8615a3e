package quota

import (
	"testing"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanCreateLink(t *testing.T) {
	tests := []struct {
		name    string
		tier    model.Tier
		current int64
		want    bool
	}{
		{"free under limit", model.TierFree, 9, true},
		{"free at limit", model.TierFree, 10, false},
		{"pro under limit", model.TierPro, 99, true},
		{"pro at limit", model.TierPro, 100, false},
		{"enterprise unbounded", model.TierEnterprise, 1_000_000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCreateLink(tt.tier, tt.current))
		})
	}
}

func TestCanAddDomain(t *testing.T) {
	assert.False(t, CanAddDomain(model.TierFree, 0))
	assert.True(t, CanAddDomain(model.TierPro, 2))
	assert.False(t, CanAddDomain(model.TierPro, 3))
	assert.True(t, CanAddDomain(model.TierEnterprise, 500))
}

func TestHasReachedScanLimit(t *testing.T) {
	assert.False(t, HasReachedScanLimit(model.TierFree, 999))
	assert.True(t, HasReachedScanLimit(model.TierFree, 1000))
	assert.True(t, HasReachedScanLimit(model.TierPro, 50000))
	assert.False(t, HasReachedScanLimit(model.TierEnterprise, 1<<40))
}

func TestRoutingModeAllowed(t *testing.T) {
	assert.False(t, RoutingModeAllowed(model.TierFree))
	assert.True(t, RoutingModeAllowed(model.TierPro))
	assert.True(t, RoutingModeAllowed(model.TierEnterprise))
}

func TestUnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, Table[model.TierFree], Limits(model.Tier("platinum")))
	_, err := ParseTier("platinum")
	require.Error(t, err)

	tier, err := ParseTier("pro")
	require.NoError(t, err)
	assert.Equal(t, model.TierPro, tier)
}

func TestCompareTiers(t *testing.T) {
	assert.True(t, IsHigherTier(model.TierEnterprise, model.TierPro))
	assert.True(t, IsHigherTier(model.TierPro, model.TierFree))
	assert.False(t, IsHigherTier(model.TierFree, model.TierFree))
	assert.Less(t, CompareTiers(model.TierFree, model.TierEnterprise), 0)
}

func TestRemainingAndPercentages(t *testing.T) {
	left, bounded := RemainingScans(model.TierFree, 1200)
	assert.True(t, bounded)
	assert.Equal(t, int64(0), left)

	_, bounded = RemainingScans(model.TierEnterprise, 10)
	assert.False(t, bounded)

	assert.InDelta(t, 50.0, LinkUsagePercentage(model.TierFree, 5), 0.001)
	assert.InDelta(t, 100.0, LinkUsagePercentage(model.TierFree, 15), 0.001)
	assert.Zero(t, ScanUsagePercentage(model.TierEnterprise, 123))
	assert.Zero(t, DomainUsagePercentage(model.TierFree, 0))

	left, bounded = RemainingDomains(model.TierFree, 0)
	assert.True(t, bounded)
	assert.Zero(t, left)
}

func TestMessages(t *testing.T) {
	assert.Contains(t, LinkLimitMessage(model.TierFree, 10), "limit of 10 QR codes on the FREE plan")
	assert.Contains(t, LinkLimitMessage(model.TierFree, 8), "only 2 QR code(s) left")
	assert.Equal(t, "7 of 10 QR codes available", LinkLimitMessage(model.TierFree, 3))
	assert.Equal(t, "Unlimited QR codes", LinkLimitMessage(model.TierEnterprise, 3))

	assert.Contains(t, DomainLimitMessage(model.TierFree, 0), "not available on the FREE plan")
	assert.Equal(t, "Warning: only 1 domain left on your plan.", DomainLimitMessage(model.TierPro, 2))
	assert.Equal(t, "Unlimited custom domains", DomainLimitMessage(model.TierEnterprise, 2))

	assert.Contains(t, ScanLimitMessage(model.TierFree, 1000), "Monthly limit of 1000 scans reached")
	assert.Equal(t, "Warning: only 50 scans left this month.", ScanLimitMessage(model.TierFree, 950))
	assert.Equal(t, "10 of 1000 scans this month", ScanLimitMessage(model.TierFree, 10))
}

func TestSummary(t *testing.T) {
	s := Summary(model.TierPro, 50, 25000, 1)
	assert.Equal(t, model.TierPro, s.Tier)
	assert.InDelta(t, 50.0, s.Links.Percentage, 0.001)
	assert.InDelta(t, 50.0, s.Scans.Percentage, 0.001)
	assert.Equal(t, int64(3), s.Domains.Limit)
	assert.False(t, s.Scans.Unlimited)

	e := Summary(model.TierEnterprise, 1, 1, 1)
	assert.True(t, e.Links.Unlimited)
	assert.True(t, e.Domains.Unlimited)
}
