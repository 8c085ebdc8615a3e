package model

import "time"

// ShortLink короткая ссылка (QR-код) владельца.
// ScanCount меняется только атомарным резолвером.
type ShortLink struct {
	ID             string    `json:"id"`
	ShortID        string    `json:"short_id"`
	DestinationURL string    `json:"destination_url"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name,omitempty"`
	CustomDomainID *string   `json:"custom_domain_id"`
	ScanCount      int64     `json:"scan_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// BoundTo сообщает, привязана ли ссылка к указанному домену.
func (l *ShortLink) BoundTo(domainID string) bool {
	return l.CustomDomainID != nil && *l.CustomDomainID == domainID
}
