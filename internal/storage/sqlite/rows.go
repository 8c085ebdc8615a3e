package sqlite

import (
	"time"

	"github.com/Totarae/scanlink/internal/model"
)

type linkRow struct {
	ID             string `gorm:"primaryKey"`
	ShortID        string `gorm:"uniqueIndex;not null"`
	DestinationURL string `gorm:"not null"`
	OwnerID        string `gorm:"index;not null"`
	Name           string
	CustomDomainID *string `gorm:"index"`
	ScanCount      int64   `gorm:"not null;default:0"`
	CreatedAt      time.Time
}

func (linkRow) TableName() string { return "short_links" }

func newLinkRow(l *model.ShortLink) *linkRow {
	return &linkRow{
		ID:             l.ID,
		ShortID:        l.ShortID,
		DestinationURL: l.DestinationURL,
		OwnerID:        l.OwnerID,
		Name:           l.Name,
		CustomDomainID: l.CustomDomainID,
		ScanCount:      l.ScanCount,
		CreatedAt:      l.CreatedAt,
	}
}

func (r *linkRow) toModel() *model.ShortLink {
	return &model.ShortLink{
		ID:             r.ID,
		ShortID:        r.ShortID,
		DestinationURL: r.DestinationURL,
		OwnerID:        r.OwnerID,
		Name:           r.Name,
		CustomDomainID: r.CustomDomainID,
		ScanCount:      r.ScanCount,
		CreatedAt:      r.CreatedAt,
	}
}

// domainRow хранит только verified_at: подтверждённость выводится из него.
type domainRow struct {
	ID                string `gorm:"primaryKey"`
	OwnerID           string `gorm:"index;not null"`
	Domain            string `gorm:"uniqueIndex;not null"`
	Mode              string `gorm:"not null;default:branding"`
	VerificationToken string `gorm:"not null"`
	VerifiedAt        *time.Time
	CreatedAt         time.Time
}

func (domainRow) TableName() string { return "custom_domains" }

func newDomainRow(d *model.CustomDomain) *domainRow {
	return &domainRow{
		ID:                d.ID,
		OwnerID:           d.OwnerID,
		Domain:            d.Domain,
		Mode:              string(d.Mode),
		VerificationToken: d.VerificationToken,
		VerifiedAt:        d.VerifiedAt(),
		CreatedAt:         d.CreatedAt,
	}
}

func (r *domainRow) toModel() *model.CustomDomain {
	d := &model.CustomDomain{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Domain:            r.Domain,
		Mode:              model.DomainMode(r.Mode),
		VerificationToken: r.VerificationToken,
		CreatedAt:         r.CreatedAt,
	}
	d.RestoreVerification(r.VerifiedAt)
	return d
}

// domainStatsRow строка агрегирующего запроса по доменам.
type domainStatsRow struct {
	ID                string
	OwnerID           string
	Domain            string
	Mode              string
	VerificationToken string
	VerifiedAt        *time.Time
	CreatedAt         time.Time
	LinkCount         int64
	TotalScans        int64
}

func (r *domainStatsRow) toModel() model.DomainStats {
	d := domainRow{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Domain:            r.Domain,
		Mode:              r.Mode,
		VerificationToken: r.VerificationToken,
		VerifiedAt:        r.VerifiedAt,
		CreatedAt:         r.CreatedAt,
	}
	return model.DomainStats{CustomDomain: *d.toModel(), LinkCount: r.LinkCount, TotalScans: r.TotalScans}
}

type accountRow struct {
	OwnerID      string `gorm:"primaryKey"`
	Tier         string `gorm:"not null;default:free"`
	MonthlyScans int64  `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

func (accountRow) TableName() string { return "accounts" }

func (r *accountRow) toModel() *model.Account {
	return &model.Account{
		OwnerID:      r.OwnerID,
		Tier:         model.Tier(r.Tier),
		MonthlyScans: r.MonthlyScans,
		UpdatedAt:    r.UpdatedAt,
	}
}
