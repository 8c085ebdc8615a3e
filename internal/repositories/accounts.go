package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Totarae/scanlink/internal/model"
)

// GetAccount возвращает аккаунт; отсутствующий аккаунт считается free без сканов.
func (r *Repository) GetAccount(ctx context.Context, ownerID string) (*model.Account, error) {
	acc := &model.Account{OwnerID: ownerID}
	var tier string
	err := r.DB.Pool.QueryRow(ctx,
		`SELECT tier, monthly_scans, updated_at FROM accounts WHERE owner_id = $1`, ownerID).
		Scan(&tier, &acc.MonthlyScans, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		acc.Tier = model.TierFree
		return acc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	acc.Tier = model.Tier(tier)
	return acc, nil
}

func (r *Repository) SetTier(ctx context.Context, ownerID string, tier model.Tier) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO accounts (owner_id, tier, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET tier = EXCLUDED.tier, updated_at = EXCLUDED.updated_at`,
		ownerID, string(tier), now())
	if err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	return nil
}

func (r *Repository) ResetMonthlyScans(ctx context.Context, ownerID string) error {
	_, err := r.DB.Pool.Exec(ctx,
		`UPDATE accounts SET monthly_scans = 0, updated_at = $2 WHERE owner_id = $1`, ownerID, now())
	if err != nil {
		return fmt.Errorf("failed to reset scans: %w", err)
	}
	return nil
}

func (r *Repository) ResetAllMonthlyScans(ctx context.Context) (int64, error) {
	tag, err := r.DB.Pool.Exec(ctx,
		`UPDATE accounts SET monthly_scans = 0, updated_at = $1 WHERE monthly_scans <> 0`, now())
	if err != nil {
		return 0, fmt.Errorf("failed to reset scans: %w", err)
	}
	return tag.RowsAffected(), nil
}
