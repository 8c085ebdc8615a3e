package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/quota"
	"github.com/Totarae/scanlink/internal/ratelimit"
	"github.com/Totarae/scanlink/internal/storage"
	"github.com/Totarae/scanlink/internal/util"
)

// DomainChecker проверка DNS-записи домена.
type DomainChecker interface {
	Check(ctx context.Context, d *model.CustomDomain) model.VerificationResult
	ExpectedRecord(d *model.CustomDomain) model.DNSRecord
}

// DomainService реестр кастомных доменов и их верификация.
type DomainService struct {
	Store       storage.Storage
	Checker     DomainChecker
	Limiter     ratelimit.Limiter
	Logger      *zap.Logger
	PrimaryHost string

	now func() time.Time
}

func NewDomainService(store storage.Storage, checker DomainChecker, limiter ratelimit.Limiter, logger *zap.Logger, primaryHost string) *DomainService {
	return &DomainService{
		Store:       store,
		Checker:     checker,
		Limiter:     limiter,
		Logger:      logger,
		PrimaryHost: primaryHost,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register добавляет домен владельца в состоянии Pending со свежим токеном.
// Проверки тарифа выполняются внутри атомарной секции хранилища.
func (s *DomainService) Register(ctx context.Context, ownerID string, req model.RegisterDomainRequest) (*model.CustomDomain, error) {
	domain, ok := util.NormalizeDomain(req.Domain)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a valid hostname", ErrInvalidDomain, req.Domain)
	}
	if domain == s.PrimaryHost {
		return nil, fmt.Errorf("%w: %s is the platform domain", ErrInvalidDomain, domain)
	}
	mode, ok := model.ParseDomainMode(req.Mode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidDomain, req.Mode)
	}
	token, err := util.GenerateVerificationToken()
	if err != nil {
		return nil, err
	}

	guard := func(tier model.Tier, n int64) error {
		if mode == model.ModeRouting && !quota.RoutingModeAllowed(tier) {
			return ErrModeNotAllowed
		}
		if !quota.CanAddDomain(tier, n) {
			return &QuotaError{Resource: "custom_domains", Tier: tier, Current: n, Limit: quota.Limits(tier).MaxDomains}
		}
		return nil
	}

	d := &model.CustomDomain{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Domain:            domain,
		Mode:              mode,
		VerificationToken: token,
		CreatedAt:         s.now(),
	}
	err = s.Store.CreateDomain(ctx, d, guard)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, ErrDomainTaken
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Домен зарегистрирован",
		zap.String("owner_id", ownerID),
		zap.String("domain", domain),
		zap.String("mode", string(mode)))
	return d, nil
}

// ExpectedRecord TXT-запись, которую владелец должен опубликовать для домена.
func (s *DomainService) ExpectedRecord(d *model.CustomDomain) model.DNSRecord {
	return s.Checker.ExpectedRecord(d)
}

// Unregister удаляет домен; привязанные ссылки возвращаются на основной домен.
func (s *DomainService) Unregister(ctx context.Context, ownerID, domainID string) error {
	err := s.Store.DeleteDomain(ctx, domainID, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List домены владельца с числом ссылок и сканов.
func (s *DomainService) List(ctx context.Context, ownerID string) ([]model.DomainStats, error) {
	return s.Store.ListDomainStats(ctx, ownerID)
}

// Verify проверяет TXT-запись и при совпадении токена переводит домен в Verified.
// Неудача DNS возвращается как результат VerificationFailed без ошибки.
func (s *DomainService) Verify(ctx context.Context, ownerID, domainID string) (model.VerificationResult, error) {
	d, err := s.Store.GetDomain(ctx, domainID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && d.OwnerID != ownerID) {
		return model.VerificationResult{}, ErrNotFound
	}
	if err != nil {
		return model.VerificationResult{}, err
	}
	if d.Verified() {
		return model.VerificationResult{}, ErrAlreadyVerified
	}

	if s.Limiter != nil {
		allowed, err := s.Limiter.Allow(ctx, d.ID)
		if err != nil {
			s.Logger.Warn("Лимитер недоступен", zap.Error(err))
		}
		if !allowed {
			return model.VerificationResult{}, ErrRateLimited
		}
	}

	res := s.Checker.Check(ctx, d)
	if res.Status != model.VerificationSuccess {
		return res, nil
	}

	err = s.Store.MarkDomainVerified(ctx, d.ID, ownerID, s.now())
	switch {
	case errors.Is(err, model.ErrAlreadyVerified):
		// Параллельная проверка успела раньше: итог для владельца тот же.
		return res, nil
	case errors.Is(err, storage.ErrNotFound):
		return model.VerificationResult{}, ErrNotFound
	case err != nil:
		return model.VerificationResult{}, err
	}
	s.Logger.Info("Домен подтверждён", zap.String("domain", d.Domain), zap.String("owner_id", ownerID))
	return res, nil
}
