// Package quota содержит чистые функции тарифной политики: лимиты планов
// и решения о допустимости операций.
package quota

import (
	"fmt"

	"github.com/Totarae/scanlink/internal/model"
)

// Unlimited значение лимита без ограничения.
const Unlimited int64 = -1

// TierLimits лимиты одного плана.
type TierLimits struct {
	MaxLinks        int64
	MaxScansMonthly int64
	MaxDomains      int64
	CustomDomains   bool
	RoutingMode     bool
}

// Table фиксированная конфигурация планов. Логика решений читает лимиты только отсюда.
var Table = map[model.Tier]TierLimits{
	model.TierFree: {
		MaxLinks:        10,
		MaxScansMonthly: 1000,
		MaxDomains:      0,
	},
	model.TierPro: {
		MaxLinks:        100,
		MaxScansMonthly: 50000,
		MaxDomains:      3,
		CustomDomains:   true,
		RoutingMode:     true,
	},
	model.TierEnterprise: {
		MaxLinks:        Unlimited,
		MaxScansMonthly: Unlimited,
		MaxDomains:      Unlimited,
		CustomDomains:   true,
		RoutingMode:     true,
	},
}

var tierRank = map[model.Tier]int{
	model.TierFree:       1,
	model.TierPro:        2,
	model.TierEnterprise: 3,
}

// ParseTier разбирает название плана.
func ParseTier(s string) (model.Tier, error) {
	t := model.Tier(s)
	if _, ok := tierRank[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// Limits возвращает лимиты плана. Неизвестный план трактуется как free.
func Limits(tier model.Tier) TierLimits {
	if l, ok := Table[tier]; ok {
		return l
	}
	return Table[model.TierFree]
}

// CompareTiers >0 если a выше b, <0 если ниже, 0 если равны.
func CompareTiers(a, b model.Tier) int {
	return tierRank[a] - tierRank[b]
}

// IsHigherTier сообщает, выше ли tier, чем comparedTo.
func IsHigherTier(tier, comparedTo model.Tier) bool {
	return CompareTiers(tier, comparedTo) > 0
}
