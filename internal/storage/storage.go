// Package storage описывает контракт хранилища ссылок, доменов и счётчиков владельцев.
//
// Все проверки квот передаются в хранилище чистыми предикатами (guard) и вычисляются
// внутри атомарной секции хранилища: проверка и изменение никогда не разделены
// отдельными обращениями.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Totarae/scanlink/internal/model"
)

var (
	ErrNotFound     = errors.New("[storage]: record not found")
	ErrDuplicateKey = errors.New("[storage]: duplicate key")
	// ErrUnknownDomain привязка к домену, которого нет или который принадлежит другому владельцу.
	ErrUnknownDomain = errors.New("[storage]: unknown custom domain")
)

// LinkGuard решает, может ли владелец с тарифом tier создать ещё одну ссылку
// при текущем количестве current. Ненулевая ошибка отменяет создание.
type LinkGuard func(tier model.Tier, current int64) error

// DomainGuard аналог LinkGuard для кастомных доменов.
type DomainGuard func(tier model.Tier, current int64) error

// ScanGuard сообщает, исчерпан ли месячный лимит сканов.
type ScanGuard func(tier model.Tier, monthlyScans int64) bool

// LinkStore хранилище коротких ссылок.
type LinkStore interface {
	// CreateLink атомарно проверяет guard и вставляет ссылку.
	// ErrDuplicateKey при коллизии ShortID, ErrUnknownDomain если привязанного
	// домена владельца уже нет.
	CreateLink(ctx context.Context, link *model.ShortLink, guard LinkGuard) error
	GetLink(ctx context.Context, shortID string) (*model.ShortLink, error)
	ListLinks(ctx context.Context, ownerID string) ([]*model.ShortLink, error)
	CountLinks(ctx context.Context, ownerID string) (int64, error)
	// UpdateLink меняет назначение. customDomainID == nil сохраняет привязку, "" снимает её.
	// ErrNotFound если ссылка чужая или отсутствует, ErrUnknownDomain как у CreateLink.
	UpdateLink(ctx context.Context, shortID, ownerID, destination string, customDomainID *string) (*model.ShortLink, error)
	DeleteLink(ctx context.Context, shortID, ownerID string) error
	// ResolveScan единая неделимая операция: поиск ссылки, проверка guard,
	// инкремент monthly_scans владельца и scan_count ссылки.
	ResolveScan(ctx context.Context, req model.ScanRequest, limitReached ScanGuard) (model.Resolution, error)
}

// DomainStore реестр кастомных доменов.
type DomainStore interface {
	// CreateDomain атомарно проверяет guard и вставляет домен.
	// ErrDuplicateKey если домен уже зарегистрирован любым владельцем.
	CreateDomain(ctx context.Context, d *model.CustomDomain, guard DomainGuard) error
	GetDomain(ctx context.Context, id string) (*model.CustomDomain, error)
	// FindDomainByHost ищет домен по имени хоста независимо от состояния.
	FindDomainByHost(ctx context.Context, host string) (*model.CustomDomain, error)
	ListDomainStats(ctx context.Context, ownerID string) ([]model.DomainStats, error)
	CountDomains(ctx context.Context, ownerID string) (int64, error)
	// DeleteDomain удаляет домен и обнуляет привязку у ссылок (ссылки не удаляются).
	DeleteDomain(ctx context.Context, id, ownerID string) error
	// MarkDomainVerified условный переход Pending -> Verified.
	// model.ErrAlreadyVerified если домен уже подтверждён.
	MarkDomainVerified(ctx context.Context, id, ownerID string, at time.Time) error
}

// AccountStore счётчики владельцев, которые пишет биллинг.
type AccountStore interface {
	// GetAccount возвращает аккаунт; отсутствующий аккаунт это free без сканов.
	GetAccount(ctx context.Context, ownerID string) (*model.Account, error)
	SetTier(ctx context.Context, ownerID string, tier model.Tier) error
	ResetMonthlyScans(ctx context.Context, ownerID string) error
	ResetAllMonthlyScans(ctx context.Context) (int64, error)
}

// Storage полный контракт хранилища.
type Storage interface {
	LinkStore
	DomainStore
	AccountStore
	Ping(ctx context.Context) error
	Close() error
}
