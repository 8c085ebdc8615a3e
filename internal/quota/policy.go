package quota

import (
	"fmt"
	"math"
	"strings"

	"github.com/Totarae/scanlink/internal/model"
)

// CanCreateLink можно ли создать ещё одну ссылку.
func CanCreateLink(tier model.Tier, currentLinkCount int64) bool {
	limit := Limits(tier).MaxLinks
	return limit == Unlimited || currentLinkCount < limit
}

// CanAddDomain можно ли добавить ещё один кастомный домен.
func CanAddDomain(tier model.Tier, currentDomainCount int64) bool {
	l := Limits(tier)
	if !l.CustomDomains || l.MaxDomains == 0 {
		return false
	}
	if l.MaxDomains == Unlimited {
		return true
	}
	return currentDomainCount < l.MaxDomains
}

// HasReachedScanLimit исчерпан ли месячный лимит сканов.
func HasReachedScanLimit(tier model.Tier, monthlyScans int64) bool {
	limit := Limits(tier).MaxScansMonthly
	if limit == Unlimited {
		return false
	}
	return monthlyScans >= limit
}

// RoutingModeAllowed разрешён ли режим routing для плана.
func RoutingModeAllowed(tier model.Tier) bool {
	return Limits(tier).RoutingMode
}

// RemainingLinks сколько ссылок ещё можно создать; ok=false для безлимитного плана.
func RemainingLinks(tier model.Tier, current int64) (int64, bool) {
	return remaining(Limits(tier).MaxLinks, current)
}

// RemainingDomains сколько доменов ещё можно добавить; ok=false для безлимитного плана.
func RemainingDomains(tier model.Tier, current int64) (int64, bool) {
	l := Limits(tier)
	if !l.CustomDomains {
		return 0, true
	}
	return remaining(l.MaxDomains, current)
}

// RemainingScans сколько сканов осталось в месяце; ok=false для безлимитного плана.
func RemainingScans(tier model.Tier, monthlyScans int64) (int64, bool) {
	return remaining(Limits(tier).MaxScansMonthly, monthlyScans)
}

func remaining(limit, current int64) (int64, bool) {
	if limit == Unlimited {
		return 0, false
	}
	if current >= limit {
		return 0, true
	}
	return limit - current, true
}

// LinkUsagePercentage доля использованного лимита ссылок, 0..100.
func LinkUsagePercentage(tier model.Tier, current int64) float64 {
	return percentage(Limits(tier).MaxLinks, current)
}

// ScanUsagePercentage доля использованного лимита сканов, 0..100. Безлимит = 0.
func ScanUsagePercentage(tier model.Tier, monthlyScans int64) float64 {
	return percentage(Limits(tier).MaxScansMonthly, monthlyScans)
}

// DomainUsagePercentage доля использованного лимита доменов, 0..100.
func DomainUsagePercentage(tier model.Tier, current int64) float64 {
	limit := Limits(tier).MaxDomains
	if limit == 0 {
		return 0
	}
	return percentage(limit, current)
}

func percentage(limit, current int64) float64 {
	if limit == Unlimited || limit <= 0 {
		return 0
	}
	return math.Min(100, float64(current)/float64(limit)*100)
}

// LinkLimitMessage сообщение о состоянии лимита ссылок.
func LinkLimitMessage(tier model.Tier, current int64) string {
	left, bounded := RemainingLinks(tier, current)
	if !bounded {
		return "Unlimited QR codes"
	}
	limit := Limits(tier).MaxLinks
	switch {
	case left == 0:
		return fmt.Sprintf("You have reached the limit of %d QR codes on the %s plan. Upgrade to create more!",
			limit, strings.ToUpper(string(tier)))
	case left <= 2:
		return fmt.Sprintf("Warning: only %d QR code(s) left on your plan.", left)
	default:
		return fmt.Sprintf("%d of %d QR codes available", left, limit)
	}
}

// DomainLimitMessage сообщение о состоянии лимита доменов.
func DomainLimitMessage(tier model.Tier, current int64) string {
	l := Limits(tier)
	if !l.CustomDomains {
		return fmt.Sprintf("Custom domains are not available on the %s plan. Upgrade to Pro!",
			strings.ToUpper(string(tier)))
	}
	left, bounded := RemainingDomains(tier, current)
	if !bounded {
		return "Unlimited custom domains"
	}
	switch left {
	case 0:
		return fmt.Sprintf("You have reached the limit of %d domain(s) on the %s plan.",
			l.MaxDomains, strings.ToUpper(string(tier)))
	case 1:
		return "Warning: only 1 domain left on your plan."
	default:
		return fmt.Sprintf("%d of %d domains available", left, l.MaxDomains)
	}
}

// ScanLimitMessage сообщение о состоянии месячного лимита сканов.
func ScanLimitMessage(tier model.Tier, monthlyScans int64) string {
	left, bounded := RemainingScans(tier, monthlyScans)
	if !bounded {
		return "Unlimited scans"
	}
	limit := Limits(tier).MaxScansMonthly
	switch {
	case left == 0:
		return fmt.Sprintf("Monthly limit of %d scans reached! Upgrade to continue.", limit)
	case left <= 100:
		return fmt.Sprintf("Warning: only %d scans left this month.", left)
	default:
		return fmt.Sprintf("%d of %d scans this month", monthlyScans, limit)
	}
}

// Summary собирает сводку использования по всем осям.
func Summary(tier model.Tier, links, monthlyScans, domains int64) model.UsageSummary {
	l := Limits(tier)
	return model.UsageSummary{
		Tier: tier,
		Links: model.QuotaUsage{
			Current:    links,
			Limit:      l.MaxLinks,
			Unlimited:  l.MaxLinks == Unlimited,
			Percentage: LinkUsagePercentage(tier, links),
			Message:    LinkLimitMessage(tier, links),
		},
		Scans: model.QuotaUsage{
			Current:    monthlyScans,
			Limit:      l.MaxScansMonthly,
			Unlimited:  l.MaxScansMonthly == Unlimited,
			Percentage: ScanUsagePercentage(tier, monthlyScans),
			Message:    ScanLimitMessage(tier, monthlyScans),
		},
		Domains: model.QuotaUsage{
			Current:    domains,
			Limit:      l.MaxDomains,
			Unlimited:  l.MaxDomains == Unlimited,
			Percentage: DomainUsagePercentage(tier, domains),
			Message:    DomainLimitMessage(tier, domains),
		},
	}
}
