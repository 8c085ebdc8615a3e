package service

import (
	"errors"
	"fmt"

	"github.com/Totarae/scanlink/internal/model"
)

// Ошибки сервисного слоя. LimitReached и VerificationFailed ошибками не являются:
// это штатные результаты (model.OutcomeLimitReached, model.VerificationFailed).
var (
	ErrNotFound        = errors.New("not found")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrModeNotAllowed  = errors.New("routing mode is not available on this plan")
	ErrDomainTaken     = errors.New("domain is already registered")
	ErrAlreadyVerified = model.ErrAlreadyVerified
	ErrInvalidURL      = errors.New("invalid destination URL")
	ErrInvalidTier     = errors.New("invalid tier")
	ErrRateLimited     = errors.New("too many verification attempts")
)

// QuotaError подробности превышения квоты для ответа владельцу.
type QuotaError struct {
	Resource string
	Tier     model.Tier
	Current  int64
	Limit    int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s limit reached: %d of %d on %s plan", e.Resource, e.Current, e.Limit, e.Tier)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
