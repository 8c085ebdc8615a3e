package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/quota"
	"github.com/Totarae/scanlink/internal/storage"
	"github.com/Totarae/scanlink/internal/util"
)

// maxShortIDAttempts число попыток сгенерировать незанятый идентификатор.
const maxShortIDAttempts = 5

// LinkService управление короткими ссылками владельца.
type LinkService struct {
	Store   storage.Storage
	Logger  *zap.Logger
	BaseURL string

	// NewShortID генератор идентификаторов; подменяется в тестах.
	NewShortID func() (string, error)
}

func NewLinkService(store storage.Storage, logger *zap.Logger, baseURL string) *LinkService {
	return &LinkService{
		Store:      store,
		Logger:     logger,
		BaseURL:    baseURL,
		NewShortID: util.GenerateShortID,
	}
}

// Create создаёт ссылку. Квота проверяется атомарно внутри хранилища.
func (s *LinkService) Create(ctx context.Context, ownerID string, req model.CreateLinkRequest) (*model.CreateLinkResponse, error) {
	if !util.ValidDestination(req.URL) {
		return nil, ErrInvalidURL
	}
	domainID, err := s.checkDomain(ctx, ownerID, req.CustomDomainID)
	if err != nil {
		return nil, err
	}

	var (
		tier    model.Tier
		current int64
	)
	guard := func(t model.Tier, n int64) error {
		if !quota.CanCreateLink(t, n) {
			return &QuotaError{Resource: "qr_codes", Tier: t, Current: n, Limit: quota.Limits(t).MaxLinks}
		}
		tier, current = t, n+1
		return nil
	}

	link := &model.ShortLink{
		ID:             uuid.NewString(),
		DestinationURL: req.URL,
		OwnerID:        ownerID,
		Name:           req.Name,
		CustomDomainID: domainID,
	}
	for attempt := 1; ; attempt++ {
		link.ShortID, err = s.NewShortID()
		if err != nil {
			return nil, err
		}
		err = s.Store.CreateLink(ctx, link, guard)
		if !errors.Is(err, storage.ErrDuplicateKey) {
			break
		}
		if attempt == maxShortIDAttempts {
			return nil, fmt.Errorf("short id collision after %d attempts: %w", attempt, err)
		}
		s.Logger.Warn("Коллизия короткого идентификатора", zap.String("short_id", link.ShortID))
	}
	if errors.Is(err, storage.ErrUnknownDomain) {
		return nil, fmt.Errorf("%w: unknown domain", ErrInvalidDomain)
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Ссылка создана",
		zap.String("owner_id", ownerID),
		zap.String("short_id", link.ShortID),
		zap.Int64("links", current))

	return &model.CreateLinkResponse{
		ShortID:  link.ShortID,
		ShortURL: s.shortURL(ctx, link),
		Usage: model.UsageInfo{
			Current: current,
			Tier:    tier,
			Message: quota.LinkLimitMessage(tier, current),
		},
	}, nil
}

// Update меняет назначение ссылки и, при необходимости, привязку домена.
func (s *LinkService) Update(ctx context.Context, ownerID, shortID string, req model.UpdateLinkRequest) (*model.ShortLink, error) {
	if !util.ValidDestination(req.URL) {
		return nil, ErrInvalidURL
	}
	domainID := req.CustomDomainID
	if domainID != nil && *domainID != "" {
		if _, err := s.checkDomain(ctx, ownerID, domainID); err != nil {
			return nil, err
		}
	}
	link, err := s.Store.UpdateLink(ctx, shortID, ownerID, req.URL, domainID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, storage.ErrUnknownDomain):
		return nil, fmt.Errorf("%w: unknown domain", ErrInvalidDomain)
	}
	return link, err
}

// Delete удаляет ссылку владельца.
func (s *LinkService) Delete(ctx context.Context, ownerID, shortID string) error {
	err := s.Store.DeleteLink(ctx, shortID, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// List возвращает ссылки владельца со счётчиками сканов.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]model.LinkResponse, error) {
	links, err := s.Store.ListLinks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	res := make([]model.LinkResponse, 0, len(links))
	for _, l := range links {
		res = append(res, model.LinkResponse{
			ShortID:        l.ShortID,
			ShortURL:       s.shortURL(ctx, l),
			DestinationURL: l.DestinationURL,
			Name:           l.Name,
			CustomDomainID: l.CustomDomainID,
			ScanCount:      l.ScanCount,
			CreatedAt:      l.CreatedAt,
		})
	}
	return res, nil
}

// checkDomain домен должен принадлежать владельцу и быть подтверждён.
// Пустой идентификатор означает отсутствие привязки.
func (s *LinkService) checkDomain(ctx context.Context, ownerID string, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	d, err := s.Store.GetDomain(ctx, *id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown domain", ErrInvalidDomain)
	}
	if err != nil {
		return nil, err
	}
	if d.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: unknown domain", ErrInvalidDomain)
	}
	if !d.Verified() {
		return nil, fmt.Errorf("%w: domain %s is not verified", ErrInvalidDomain, d.Domain)
	}
	v := *id
	return &v, nil
}

// shortURL адрес ссылки: на домене владельца, если он обслуживает трафик, иначе на основном.
func (s *LinkService) shortURL(ctx context.Context, l *model.ShortLink) string {
	if l.CustomDomainID != nil {
		d, err := s.Store.GetDomain(ctx, *l.CustomDomainID)
		if err == nil && model.ServesTraffic(d) {
			return "https://" + d.Domain + "/" + l.ShortID
		}
	}
	return util.JoinURL(s.BaseURL, "/"+l.ShortID)
}
