// Package repositories реализует storage.Storage поверх PostgreSQL.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Totarae/scanlink/internal/database"
	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/storage"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository хранилище ссылок, доменов и аккаунтов в PostgreSQL.
type Repository struct {
	DB *database.DB
}

var _ storage.Storage = (*Repository)(nil)

// NewRepository создаёт новый экземпляр Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{DB: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// lockDomain удерживает строку домена владельца до конца транзакции,
// чтобы домен не удалили между проверкой и записью привязки.
func lockDomain(ctx context.Context, tx pgx.Tx, ownerID, id string) error {
	var one int
	err := tx.QueryRow(ctx,
		`SELECT 1 FROM custom_domains WHERE id = $1 AND owner_id = $2 FOR SHARE`, id, ownerID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrUnknownDomain
	}
	if err != nil {
		return fmt.Errorf("lock domain: %w", err)
	}
	return nil
}

// inTx выполняет fn в транзакции; при ошибке транзакция откатывается.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockAccount создаёт аккаунт при необходимости и блокирует его строку до конца транзакции.
// Все проверки квот владельца сериализуются на этой блокировке.
func lockAccount(ctx context.Context, tx pgx.Tx, ownerID string) (model.Tier, int64, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (owner_id) VALUES ($1) ON CONFLICT (owner_id) DO NOTHING`, ownerID); err != nil {
		return "", 0, fmt.Errorf("ensure account: %w", err)
	}
	var (
		tier  string
		scans int64
	)
	err := tx.QueryRow(ctx,
		`SELECT tier, monthly_scans FROM accounts WHERE owner_id = $1 FOR UPDATE`, ownerID).Scan(&tier, &scans)
	if err != nil {
		return "", 0, fmt.Errorf("lock account: %w", err)
	}
	return model.Tier(tier), scans, nil
}

// Ping проверяет доступность базы данных.
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.Ping(ctx)
}

// Close закрывает пул соединений.
func (r *Repository) Close() error {
	r.DB.Close()
	return nil
}

func now() time.Time { return time.Now().UTC() }
