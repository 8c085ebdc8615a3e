package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/storage"
)

// errLinkGone откатывает транзакцию скана, если ссылка исчезла до инкремента.
var errLinkGone = errors.New("link deleted during scan")

const linkColumns = `id, short_id, destination_url, owner_id, name, custom_domain_id, scan_count, created_at`

func scanLink(row pgx.Row) (*model.ShortLink, error) {
	l := &model.ShortLink{}
	err := row.Scan(&l.ID, &l.ShortID, &l.DestinationURL, &l.OwnerID, &l.Name, &l.CustomDomainID, &l.ScanCount, &l.CreatedAt)
	return l, err
}

// CreateLink сохраняет ссылку. Квота проверяется под блокировкой аккаунта владельца.
func (r *Repository) CreateLink(ctx context.Context, link *model.ShortLink, guard storage.LinkGuard) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now()
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tier, _, err := lockAccount(ctx, tx, link.OwnerID)
		if err != nil {
			return err
		}
		if guard != nil {
			var n int64
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM short_links WHERE owner_id = $1`, link.OwnerID).Scan(&n); err != nil {
				return fmt.Errorf("count links: %w", err)
			}
			if err := guard(tier, n); err != nil {
				return err
			}
		}
		if link.CustomDomainID != nil {
			if err := lockDomain(ctx, tx, link.OwnerID, *link.CustomDomainID); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO short_links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			link.ID, link.ShortID, link.DestinationURL, link.OwnerID, link.Name, link.CustomDomainID, link.ScanCount, link.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			if isForeignKeyViolation(err) {
				return storage.ErrUnknownDomain
			}
			return fmt.Errorf("database insert error: %w", err)
		}
		return nil
	})
}

// GetLink извлекает ссылку по короткому идентификатору.
func (r *Repository) GetLink(ctx context.Context, shortID string) (*model.ShortLink, error) {
	l, err := scanLink(r.DB.Pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM short_links WHERE short_id = $1`, shortID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return l, nil
}

// ListLinks возвращает все ссылки владельца, новые первыми.
func (r *Repository) ListLinks(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	rows, err := r.DB.Pool.Query(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links by owner: %w", err)
	}
	defer rows.Close()

	var results []*model.ShortLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// CountLinks количество ссылок владельца
func (r *Repository) CountLinks(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM short_links WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// UpdateLink меняет назначение. customDomainID == nil оставляет привязку как есть,
// пустая строка снимает её.
func (r *Repository) UpdateLink(ctx context.Context, shortID, ownerID, destination string, customDomainID *string) (*model.ShortLink, error) {
	var l *model.ShortLink
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if customDomainID != nil && *customDomainID != "" {
			if err := lockDomain(ctx, tx, ownerID, *customDomainID); err != nil {
				return err
			}
		}
		var err error
		l, err = scanLink(tx.QueryRow(ctx, `
			UPDATE short_links
			SET destination_url = $3,
			    custom_domain_id = CASE WHEN $4::TEXT IS NULL THEN custom_domain_id ELSE NULLIF($4::TEXT, '') END
			WHERE short_id = $1 AND owner_id = $2
			RETURNING `+linkColumns, shortID, ownerID, destination, customDomainID))
		return err
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, storage.ErrNotFound
	case errors.Is(err, storage.ErrUnknownDomain):
		return nil, err
	case isForeignKeyViolation(err):
		return nil, storage.ErrUnknownDomain
	case err != nil:
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	return l, nil
}

// DeleteLink удаляет ссылку владельца.
func (r *Repository) DeleteLink(ctx context.Context, shortID, ownerID string) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM short_links WHERE short_id = $1 AND owner_id = $2`, shortID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResolveScan находит ссылку, проверяет месячный лимит владельца и увеличивает
// оба счётчика в одной транзакции под блокировкой строки аккаунта.
func (r *Repository) ResolveScan(ctx context.Context, req model.ScanRequest, limitReached storage.ScanGuard) (model.Resolution, error) {
	var out model.Resolution
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var (
			id, dest, owner string
			domainID        *string
		)
		// FOR SHARE не даёт удалить ссылку до конца транзакции: скан засчитывается
		// только ссылке, которая существует на момент коммита.
		err := tx.QueryRow(ctx,
			`SELECT id, destination_url, owner_id, custom_domain_id FROM short_links WHERE short_id = $1 FOR SHARE`,
			req.ShortID).Scan(&id, &dest, &owner, &domainID)
		if errors.Is(err, pgx.ErrNoRows) {
			out = model.Resolution{Outcome: model.OutcomeNotFound}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load link: %w", err)
		}
		if req.DomainID != "" && (domainID == nil || *domainID != req.DomainID) {
			out = model.Resolution{Outcome: model.OutcomeNotFound}
			return nil
		}

		tier, scans, err := lockAccount(ctx, tx, owner)
		if err != nil {
			return err
		}
		if limitReached != nil && limitReached(tier, scans) {
			out = model.Resolution{Outcome: model.OutcomeLimitReached, OwnerID: owner}
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE accounts SET monthly_scans = monthly_scans + 1, updated_at = $2 WHERE owner_id = $1`,
			owner, now()); err != nil {
			return fmt.Errorf("increment monthly scans: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE short_links SET scan_count = scan_count + 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("increment scan count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errLinkGone
		}
		out = model.Resolution{Outcome: model.OutcomeRedirect, Destination: dest, OwnerID: owner}
		return nil
	})
	if errors.Is(err, errLinkGone) {
		return model.Resolution{Outcome: model.OutcomeNotFound}, nil
	}
	if err != nil {
		return model.Resolution{}, err
	}
	return out, nil
}
