// Package sqlite хранилище на gorm поверх локального SQLite (modernc) или Turso (libsql).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite" // локальный SQLite без cgo

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/storage"
)

const maxScanRetries = 3

var errScanConflict = errors.New("[sqlite]: concurrent scan counter update")

// Store реализует storage.Storage.
type Store struct {
	db  *gorm.DB
	sql *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// DriverFor выбирает database/sql драйвер по DSN.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") || strings.HasPrefix(dsn, "https://") {
		return "libsql"
	}
	return "sqlite"
}

// Open подключается к базе и создаёт схему.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver := DriverFor(dsn)
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	// Все записи идут через одно соединение: SQLite не допускает параллельных писателей.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB, DriverName: driver}), &gorm.Config{TranslateError: true})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init gorm: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&linkRow{}, &domainRow{}, &accountRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return &Store{db: db, sql: sqlDB}, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ensureAccount создаёт строку аккаунта с тарифом free, если её нет.
func ensureAccount(tx *gorm.DB, ownerID string) (*accountRow, error) {
	row := accountRow{OwnerID: ownerID, Tier: string(model.TierFree), UpdatedAt: time.Now().UTC()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	var acc accountRow
	if err := tx.Where("owner_id = ?", ownerID).First(&acc).Error; err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &acc, nil
}

// checkDomainOwner проверяет внутри транзакции, что домен существует и принадлежит владельцу.
func checkDomainOwner(tx *gorm.DB, ownerID, id string) error {
	var n int64
	if err := tx.Model(&domainRow{}).Where("id = ? AND owner_id = ?", id, ownerID).Count(&n).Error; err != nil {
		return fmt.Errorf("check domain: %w", err)
	}
	if n == 0 {
		return storage.ErrUnknownDomain
	}
	return nil
}

func (s *Store) CreateLink(ctx context.Context, link *model.ShortLink, guard storage.LinkGuard) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if guard != nil {
			acc, err := ensureAccount(tx, link.OwnerID)
			if err != nil {
				return err
			}
			var n int64
			if err := tx.Model(&linkRow{}).Where("owner_id = ?", link.OwnerID).Count(&n).Error; err != nil {
				return fmt.Errorf("count links: %w", err)
			}
			if err := guard(model.Tier(acc.Tier), n); err != nil {
				return err
			}
		}
		if link.CustomDomainID != nil {
			if err := checkDomainOwner(tx, link.OwnerID, *link.CustomDomainID); err != nil {
				return err
			}
		}
		row := newLinkRow(link)
		if err := tx.Create(row).Error; err != nil {
			if isDuplicate(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert link: %w", err)
		}
		return nil
	})
}

func (s *Store) GetLink(ctx context.Context, shortID string) (*model.ShortLink, error) {
	var row linkRow
	err := s.db.WithContext(ctx).Where("short_id = ?", shortID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", shortID, err)
	}
	return row.toModel(), nil
}

func (s *Store) ListLinks(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	var rows []linkRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	res := make([]*model.ShortLink, 0, len(rows))
	for i := range rows {
		res = append(res, rows[i].toModel())
	}
	return res, nil
}

func (s *Store) CountLinks(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&linkRow{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (s *Store) UpdateLink(ctx context.Context, shortID, ownerID, destination string, customDomainID *string) (*model.ShortLink, error) {
	var row linkRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("short_id = ? AND owner_id = ?", shortID, ownerID).First(&row).Error; err != nil {
			return err
		}
		updates := map[string]any{"destination_url": destination}
		if customDomainID != nil {
			if *customDomainID == "" {
				updates["custom_domain_id"] = nil
			} else {
				if err := checkDomainOwner(tx, ownerID, *customDomainID); err != nil {
					return err
				}
				updates["custom_domain_id"] = *customDomainID
			}
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", row.ID).First(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update link %s: %w", shortID, err)
	}
	return row.toModel(), nil
}

func (s *Store) DeleteLink(ctx context.Context, shortID, ownerID string) error {
	res := s.db.WithContext(ctx).Where("short_id = ? AND owner_id = ?", shortID, ownerID).Delete(&linkRow{})
	if res.Error != nil {
		return fmt.Errorf("delete link %s: %w", shortID, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResolveScan проверяет лимит и увеличивает оба счётчика в одной транзакции.
// Счётчик аккаунта обновляется через compare-and-set, так что два экземпляра
// сервиса над одной базой libsql не превысят лимит.
func (s *Store) ResolveScan(ctx context.Context, req model.ScanRequest, limitReached storage.ScanGuard) (model.Resolution, error) {
	for attempt := 0; ; attempt++ {
		res, err := s.resolveOnce(ctx, req, limitReached)
		if errors.Is(err, errScanConflict) && attempt < maxScanRetries {
			continue
		}
		return res, err
	}
}

func (s *Store) resolveOnce(ctx context.Context, req model.ScanRequest, limitReached storage.ScanGuard) (model.Resolution, error) {
	var out model.Resolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link linkRow
		err := tx.Where("short_id = ?", req.ShortID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = model.Resolution{Outcome: model.OutcomeNotFound}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load link: %w", err)
		}
		if req.DomainID != "" && (link.CustomDomainID == nil || *link.CustomDomainID != req.DomainID) {
			out = model.Resolution{Outcome: model.OutcomeNotFound}
			return nil
		}

		acc, err := ensureAccount(tx, link.OwnerID)
		if err != nil {
			return err
		}
		if limitReached != nil && limitReached(model.Tier(acc.Tier), acc.MonthlyScans) {
			out = model.Resolution{Outcome: model.OutcomeLimitReached, OwnerID: link.OwnerID}
			return nil
		}

		upd := tx.Model(&accountRow{}).
			Where("owner_id = ? AND monthly_scans = ?", acc.OwnerID, acc.MonthlyScans).
			Updates(map[string]any{
				"monthly_scans": gorm.Expr("monthly_scans + 1"),
				"updated_at":    time.Now().UTC(),
			})
		if upd.Error != nil {
			return fmt.Errorf("increment monthly scans: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return errScanConflict
		}
		if err := tx.Model(&linkRow{}).Where("id = ?", link.ID).
			Update("scan_count", gorm.Expr("scan_count + 1")).Error; err != nil {
			return fmt.Errorf("increment scan count: %w", err)
		}
		out = model.Resolution{Outcome: model.OutcomeRedirect, Destination: link.DestinationURL, OwnerID: link.OwnerID}
		return nil
	})
	if err != nil {
		return model.Resolution{}, err
	}
	return out, nil
}

func (s *Store) CreateDomain(ctx context.Context, d *model.CustomDomain, guard storage.DomainGuard) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if guard != nil {
			acc, err := ensureAccount(tx, d.OwnerID)
			if err != nil {
				return err
			}
			var n int64
			if err := tx.Model(&domainRow{}).Where("owner_id = ?", d.OwnerID).Count(&n).Error; err != nil {
				return fmt.Errorf("count domains: %w", err)
			}
			if err := guard(model.Tier(acc.Tier), n); err != nil {
				return err
			}
		}
		if err := tx.Create(newDomainRow(d)).Error; err != nil {
			if isDuplicate(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert domain: %w", err)
		}
		return nil
	})
}

func (s *Store) findDomain(ctx context.Context, query string, args ...any) (*model.CustomDomain, error) {
	var row domainRow
	err := s.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get domain: %w", err)
	}
	return row.toModel(), nil
}

func (s *Store) GetDomain(ctx context.Context, id string) (*model.CustomDomain, error) {
	return s.findDomain(ctx, "id = ?", id)
}

func (s *Store) FindDomainByHost(ctx context.Context, host string) (*model.CustomDomain, error) {
	return s.findDomain(ctx, "domain = ?", host)
}

func (s *Store) ListDomainStats(ctx context.Context, ownerID string) ([]model.DomainStats, error) {
	var rows []domainStatsRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT d.*, COUNT(l.id) AS link_count, COALESCE(SUM(l.scan_count), 0) AS total_scans
		FROM custom_domains d
		LEFT JOIN short_links l ON l.custom_domain_id = d.id
		WHERE d.owner_id = ?
		GROUP BY d.id
		ORDER BY d.created_at DESC`, ownerID).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	res := make([]model.DomainStats, 0, len(rows))
	for i := range rows {
		res = append(res, rows[i].toModel())
	}
	return res, nil
}

func (s *Store) CountDomains(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domainRow{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

// DeleteDomain отвязывает ссылки и удаляет домен в одной транзакции.
func (s *Store) DeleteDomain(ctx context.Context, id, ownerID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domainRow
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&linkRow{}).Where("custom_domain_id = ?", id).
			Update("custom_domain_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete domain %s: %w", id, err)
	}
	return nil
}

func (s *Store) MarkDomainVerified(ctx context.Context, id, ownerID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domainRow{}).
			Where("id = ? AND owner_id = ? AND verified_at IS NULL", id, ownerID).
			Update("verified_at", at.UTC())
		if res.Error != nil {
			return fmt.Errorf("mark verified: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
		var n int64
		if err := tx.Model(&domainRow{}).Where("id = ? AND owner_id = ?", id, ownerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return model.ErrAlreadyVerified
	})
}

func (s *Store) GetAccount(ctx context.Context, ownerID string) (*model.Account, error) {
	var row accountRow
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Account{OwnerID: ownerID, Tier: model.TierFree}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return row.toModel(), nil
}

func (s *Store) SetTier(ctx context.Context, ownerID string, tier model.Tier) error {
	row := accountRow{OwnerID: ownerID, Tier: string(tier), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) ResetMonthlyScans(ctx context.Context, ownerID string) error {
	return s.db.WithContext(ctx).Model(&accountRow{}).Where("owner_id = ?", ownerID).
		Updates(map[string]any{"monthly_scans": 0, "updated_at": time.Now().UTC()}).Error
}

func (s *Store) ResetAllMonthlyScans(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&accountRow{}).Where("monthly_scans <> 0").
		Updates(map[string]any{"monthly_scans": 0, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sql.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.sql.Close()
}
