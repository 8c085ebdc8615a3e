package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/quota"
	"github.com/Totarae/scanlink/internal/storage"
)

// DefaultResolveTimeout ограничение на обращение к хранилищу при скане.
const DefaultResolveTimeout = 3 * time.Second

// Resolver атомарно разрешает короткую ссылку и учитывает скан.
type Resolver struct {
	Store   storage.Storage
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewResolver(store storage.Storage, logger *zap.Logger) *Resolver {
	return &Resolver{Store: store, Logger: logger, Timeout: DefaultResolveTimeout}
}

// ResolveAndCount разрешает ссылку на основном домене.
// Ошибка означает, что решение о подсчёте не принято, и редиректа быть не должно.
func (r *Resolver) ResolveAndCount(ctx context.Context, shortID string) (model.Resolution, error) {
	return r.resolve(ctx, model.ScanRequest{ShortID: shortID})
}

// RouteOnDomain разрешает ссылку, пришедшую на кастомный домен. Домен должен
// быть подтверждён и работать в режиме routing, ссылка привязана к нему;
// во всех остальных случаях результат NotFound.
func (r *Resolver) RouteOnDomain(ctx context.Context, host, shortID string) (model.Resolution, error) {
	d, err := r.Store.FindDomainByHost(ctx, host)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Resolution{Outcome: model.OutcomeNotFound}, nil
	}
	if err != nil {
		return model.Resolution{}, fmt.Errorf("find domain %s: %w", host, err)
	}
	if !model.ServesTraffic(d) {
		r.Logger.Debug("Домен не обслуживает трафик",
			zap.String("host", host),
			zap.Stringer("state", d.State()),
			zap.String("mode", string(d.Mode)))
		return model.Resolution{Outcome: model.OutcomeNotFound}, nil
	}
	return r.resolve(ctx, model.ScanRequest{ShortID: shortID, DomainID: d.ID})
}

func (r *Resolver) resolve(ctx context.Context, req model.ScanRequest) (model.Resolution, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	res, err := r.Store.ResolveScan(ctx, req, quota.HasReachedScanLimit)
	if err != nil {
		r.Logger.Error("Ошибка атомарного разрешения ссылки",
			zap.String("short_id", req.ShortID),
			zap.String("domain_id", req.DomainID),
			zap.Error(err))
		return model.Resolution{}, fmt.Errorf("resolve %s: %w", req.ShortID, err)
	}
	if res.Outcome == model.OutcomeLimitReached {
		r.Logger.Info("Месячный лимит сканов исчерпан",
			zap.String("short_id", req.ShortID),
			zap.String("owner_id", res.OwnerID))
	}
	return res, nil
}
