package model

import (
	"errors"
	"time"
)

// DomainMode режим привязки кастомного домена.
type DomainMode string

const (
	// ModeBranding косметический режим: трафик обслуживает основной домен.
	ModeBranding DomainMode = "branding"
	// ModeRouting трафик обслуживается прямо с домена владельца.
	ModeRouting DomainMode = "routing"
)

// ParseDomainMode разбирает режим; пустая строка означает branding.
func ParseDomainMode(s string) (DomainMode, bool) {
	switch DomainMode(s) {
	case "", ModeBranding:
		return ModeBranding, true
	case ModeRouting:
		return ModeRouting, true
	}
	return "", false
}

// VerificationState состояние верификации домена. Переход только Pending -> Verified.
type VerificationState int

const (
	StatePending VerificationState = iota
	StateVerified
)

func (s VerificationState) String() string {
	if s == StateVerified {
		return "verified"
	}
	return "pending"
}

// ErrAlreadyVerified повторная верификация уже подтверждённого домена.
var ErrAlreadyVerified = errors.New("domain already verified")

// CustomDomain домен, принадлежащий владельцу.
type CustomDomain struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Domain            string     `json:"domain"`
	Mode              DomainMode `json:"mode"`
	VerificationToken string     `json:"verification_token"`
	CreatedAt         time.Time  `json:"created_at"`

	state      VerificationState
	verifiedAt *time.Time
}

// RestoreVerification восстанавливает состояние из хранилища.
// verifiedAt != nil однозначно означает Verified, поэтому рассогласование невозможно.
func (d *CustomDomain) RestoreVerification(verifiedAt *time.Time) {
	if verifiedAt == nil {
		d.state, d.verifiedAt = StatePending, nil
		return
	}
	t := *verifiedAt
	d.state, d.verifiedAt = StateVerified, &t
}

// MarkVerified единственный переход Pending -> Verified.
func (d *CustomDomain) MarkVerified(now time.Time) error {
	if d.state == StateVerified {
		return ErrAlreadyVerified
	}
	d.state, d.verifiedAt = StateVerified, &now
	return nil
}

func (d *CustomDomain) State() VerificationState { return d.state }

func (d *CustomDomain) Verified() bool { return d.state == StateVerified }

func (d *CustomDomain) VerifiedAt() *time.Time { return d.verifiedAt }

// ServesTraffic домен может обслуживать редиректы только подтверждённым и в режиме routing.
func ServesTraffic(d *CustomDomain) bool {
	return d != nil && d.Verified() && d.Mode == ModeRouting
}

// DomainStats домен с агрегатами по привязанным ссылкам.
type DomainStats struct {
	CustomDomain
	LinkCount  int64 `json:"link_count"`
	TotalScans int64 `json:"total_scans"`
}
