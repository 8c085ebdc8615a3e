package model

import "time"

// Tier тарифный план владельца. Порядок: free < pro < enterprise.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Account счётчики владельца, которые ведёт биллинг.
type Account struct {
	OwnerID      string    `json:"owner_id"`
	Tier         Tier      `json:"tier"`
	MonthlyScans int64     `json:"monthly_scans"`
	UpdatedAt    time.Time `json:"updated_at"`
}
