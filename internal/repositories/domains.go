package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/storage"
)

const domainColumns = `id, owner_id, domain, mode, verification_token, verified_at, created_at`

func scanDomain(row pgx.Row, extra ...any) (*model.CustomDomain, error) {
	var (
		d          model.CustomDomain
		mode       string
		verifiedAt *time.Time
	)
	dest := append([]any{&d.ID, &d.OwnerID, &d.Domain, &mode, &d.VerificationToken, &verifiedAt, &d.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	d.Mode = model.DomainMode(mode)
	d.RestoreVerification(verifiedAt)
	return &d, nil
}

// CreateDomain регистрирует домен. Квота проверяется под блокировкой аккаунта владельца.
func (r *Repository) CreateDomain(ctx context.Context, d *model.CustomDomain, guard storage.DomainGuard) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now()
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tier, _, err := lockAccount(ctx, tx, d.OwnerID)
		if err != nil {
			return err
		}
		if guard != nil {
			var n int64
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM custom_domains WHERE owner_id = $1`, d.OwnerID).Scan(&n); err != nil {
				return fmt.Errorf("count domains: %w", err)
			}
			if err := guard(tier, n); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO custom_domains (id, owner_id, domain, mode, verification_token, verified, verified_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.ID, d.OwnerID, d.Domain, string(d.Mode), d.VerificationToken, d.Verified(), d.VerifiedAt(), d.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("database insert error: %w", err)
		}
		return nil
	})
}

func (r *Repository) getDomainBy(ctx context.Context, column, value string) (*model.CustomDomain, error) {
	d, err := scanDomain(r.DB.Pool.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM custom_domains WHERE `+column+` = $1`, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return d, nil
}

// GetDomain извлекает домен по идентификатору.
func (r *Repository) GetDomain(ctx context.Context, id string) (*model.CustomDomain, error) {
	return r.getDomainBy(ctx, "id", id)
}

// FindDomainByHost ищет домен по нормализованному имени хоста.
func (r *Repository) FindDomainByHost(ctx context.Context, host string) (*model.CustomDomain, error) {
	return r.getDomainBy(ctx, "domain", host)
}

// ListDomainStats возвращает домены владельца со счётчиками ссылок и сканов.
func (r *Repository) ListDomainStats(ctx context.Context, ownerID string) ([]model.DomainStats, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT d.id, d.owner_id, d.domain, d.mode, d.verification_token, d.verified_at, d.created_at,
		       COUNT(l.id), COALESCE(SUM(l.scan_count), 0)::BIGINT
		FROM custom_domains d
		LEFT JOIN short_links l ON l.custom_domain_id = d.id
		WHERE d.owner_id = $1
		GROUP BY d.id
		ORDER BY d.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var results []model.DomainStats
	for rows.Next() {
		var links, scans int64
		d, err := scanDomain(rows, &links, &scans)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, model.DomainStats{CustomDomain: *d, LinkCount: links, TotalScans: scans})
	}
	return results, rows.Err()
}

// CountDomains количество доменов владельца
func (r *Repository) CountDomains(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM custom_domains WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// DeleteDomain удаляет домен; внешний ключ ON DELETE SET NULL отвязывает ссылки.
func (r *Repository) DeleteDomain(ctx context.Context, id, ownerID string) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM custom_domains WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkDomainVerified переводит домен в Verified условным UPDATE.
func (r *Repository) MarkDomainVerified(ctx context.Context, id, ownerID string, at time.Time) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE custom_domains SET verified = TRUE, verified_at = $3
		WHERE id = $1 AND owner_id = $2 AND NOT verified`, id, ownerID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark domain verified: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	err = r.DB.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM custom_domains WHERE id = $1 AND owner_id = $2)`, id, ownerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return model.ErrAlreadyVerified
}
