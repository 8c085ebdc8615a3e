package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/quota"
	"github.com/Totarae/scanlink/internal/storage"
)

// AccountService сводка использования и хуки биллинга.
type AccountService struct {
	Store  storage.Storage
	Logger *zap.Logger
}

func NewAccountService(store storage.Storage, logger *zap.Logger) *AccountService {
	return &AccountService{Store: store, Logger: logger}
}

// Usage сводка по трём осям квоты.
func (s *AccountService) Usage(ctx context.Context, ownerID string) (model.UsageSummary, error) {
	acc, err := s.Store.GetAccount(ctx, ownerID)
	if err != nil {
		return model.UsageSummary{}, err
	}
	links, err := s.Store.CountLinks(ctx, ownerID)
	if err != nil {
		return model.UsageSummary{}, err
	}
	domains, err := s.Store.CountDomains(ctx, ownerID)
	if err != nil {
		return model.UsageSummary{}, err
	}
	return quota.Summary(acc.Tier, links, acc.MonthlyScans, domains), nil
}

// SetTier записывает тариф, присланный биллингом.
func (s *AccountService) SetTier(ctx context.Context, ownerID, tier string) error {
	t, err := quota.ParseTier(tier)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTier, err)
	}
	if err := s.Store.SetTier(ctx, ownerID, t); err != nil {
		return err
	}
	s.Logger.Info("Тариф изменён", zap.String("owner_id", ownerID), zap.String("tier", string(t)))
	return nil
}

// ResetMonthlyScans обнуляет счётчик владельца на границе биллингового цикла.
func (s *AccountService) ResetMonthlyScans(ctx context.Context, ownerID string) error {
	if err := s.Store.ResetMonthlyScans(ctx, ownerID); err != nil {
		return err
	}
	s.Logger.Info("Счётчик сканов сброшен", zap.String("owner_id", ownerID))
	return nil
}

// ResetAllMonthlyScans обнуляет счётчики всех владельцев (смена календарного месяца).
func (s *AccountService) ResetAllMonthlyScans(ctx context.Context) (int64, error) {
	n, err := s.Store.ResetAllMonthlyScans(ctx)
	if err != nil {
		return 0, err
	}
	s.Logger.Info("Счётчики сканов сброшены", zap.Int64("accounts", n))
	return n, nil
}
