package model

import "time"

// CreateLinkRequest запрос на создание короткой ссылки.
type CreateLinkRequest struct {
	URL            string  `json:"url"`
	Name           string  `json:"name,omitempty"`
	CustomDomainID *string `json:"custom_domain_id,omitempty"`
}

// UpdateLinkRequest запрос на изменение назначения и привязки домена.
type UpdateLinkRequest struct {
	URL            string  `json:"new_url"`
	CustomDomainID *string `json:"custom_domain_id,omitempty"`
}

// UsageInfo сведения об использовании квоты после операции.
type UsageInfo struct {
	Current int64  `json:"current"`
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

// CreateLinkResponse ответ на создание ссылки.
type CreateLinkResponse struct {
	ShortID  string    `json:"short_id"`
	ShortURL string    `json:"short_url"`
	Usage    UsageInfo `json:"usage"`
}

// RegisterDomainRequest запрос на добавление кастомного домена.
type RegisterDomainRequest struct {
	Domain string `json:"domain"`
	Mode   string `json:"mode"`
}

// DomainResponse представление домена для API.
type DomainResponse struct {
	ID                string     `json:"id"`
	Domain            string     `json:"domain"`
	Mode              DomainMode `json:"mode"`
	Verified          bool       `json:"verified"`
	VerificationToken string     `json:"verification_token"`
	VerifiedAt        *time.Time `json:"verified_at"`
	CreatedAt         time.Time  `json:"created_at"`
	LinkCount         int64      `json:"link_count"`
	TotalScans        int64      `json:"total_scans"`
}

// NewDomainResponse собирает ответ из домена и его статистики.
func NewDomainResponse(s DomainStats) DomainResponse {
	return DomainResponse{
		ID:                s.ID,
		Domain:            s.Domain,
		Mode:              s.Mode,
		Verified:          s.Verified(),
		VerificationToken: s.VerificationToken,
		VerifiedAt:        s.VerifiedAt(),
		CreatedAt:         s.CreatedAt,
		LinkCount:         s.LinkCount,
		TotalScans:        s.TotalScans,
	}
}

// QuotaUsage использование одной оси квоты.
type QuotaUsage struct {
	Current    int64   `json:"current"`
	Limit      int64   `json:"limit"`
	Unlimited  bool    `json:"unlimited"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}

// UsageSummary сводка использования для дашборда.
type UsageSummary struct {
	Tier    Tier       `json:"tier"`
	Links   QuotaUsage `json:"links"`
	Scans   QuotaUsage `json:"scans"`
	Domains QuotaUsage `json:"domains"`
}

// SetTierRequest запрос биллинга на смену тарифа.
type SetTierRequest struct {
	Tier string `json:"tier"`
}

// LinkResponse представление ссылки в списке владельца.
type LinkResponse struct {
	ShortID        string    `json:"short_id"`
	ShortURL       string    `json:"short_url"`
	DestinationURL string    `json:"destination_url"`
	Name           string    `json:"name,omitempty"`
	CustomDomainID *string   `json:"custom_domain_id"`
	ScanCount      int64     `json:"scan_count"`
	CreatedAt      time.Time `json:"created_at"`
}
