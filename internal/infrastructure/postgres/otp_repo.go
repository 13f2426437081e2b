package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yoryor/auth-service/internal/domain"
)

type OtpRepository struct {
	pool *pgxpool.Pool
}

func NewOtpRepository(pool *pgxpool.Pool) *OtpRepository {
	return &OtpRepository{pool: pool}
}

func (r *OtpRepository) Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM otp_codes WHERE phone = $1 AND used = FALSE`, phone); err != nil {
		return fmt.Errorf("delete unused codes: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO otp_codes (phone, code_hash, expires_at) VALUES ($1, $2, $3)`,
		phone, codeHash, expiresAt); err != nil {
		return fmt.Errorf("insert code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *OtpRepository) LatestActive(ctx context.Context, phone string, now time.Time) (*domain.OtpCode, error) {
	query := `
		SELECT id, phone, code_hash, expires_at, used, created_at
		FROM otp_codes
		WHERE phone = $1 AND used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	var c domain.OtpCode
	err := r.pool.QueryRow(ctx, query, phone, now).
		Scan(&c.ID, &c.Phone, &c.CodeHash, &c.ExpiresAt, &c.Used, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOtpNotFound
		}
		return nil, fmt.Errorf("scan otp code: %w", err)
	}
	return &c, nil
}

func (r *OtpRepository) Consume(ctx context.Context, id string) (bool, error) {
	// The used=FALSE guard makes the update a compare-and-swap: of any number
	// of concurrent verifications, only one sees RowsAffected == 1.
	tag, err := r.pool.Exec(ctx,
		`UPDATE otp_codes SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("consume otp code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OtpRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM otp_codes
		WHERE (used = TRUE AND created_at < $1)
		   OR (used = FALSE AND expires_at < $1)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge otp codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
