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

const userColumns = `id, phone, email, registration_completed,
	phone_verified_at, disabled_at, last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindOrCreateByPhone(ctx context.Context, phone string, now time.Time) (*domain.User, bool, error) {
	// ON CONFLICT DO NOTHING returns no row when the phone already exists,
	// so a returned row means this call created the user.
	query := `
		INSERT INTO users (phone, registration_completed, phone_verified_at)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (phone) DO NOTHING
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, phone, now))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	u, err = scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (r *UserRepository) CompleteRegistration(ctx context.Context, id string, details domain.RegistrationDetails) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET email = COALESCE($2, email),
		    registration_completed = TRUE,
		    updated_at = NOW()
		WHERE id = $1`, id, details.Email)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (
			user_id, first_name, last_name, date_of_birth, gender, status,
			occupation, bio, looking_for_relationship, interests,
			country_code, state, city
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			status = EXCLUDED.status,
			occupation = EXCLUDED.occupation,
			bio = EXCLUDED.bio,
			looking_for_relationship = EXCLUDED.looking_for_relationship,
			interests = EXCLUDED.interests,
			country_code = EXCLUDED.country_code,
			state = EXCLUDED.state,
			city = EXCLUDED.city`,
		id, details.FirstName, details.LastName, details.DateOfBirth,
		details.Gender, details.Status, details.Occupation, details.Bio,
		details.LookingForRelationship, details.Interests,
		details.CountryCode, details.State, details.City)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	// Preference defaults match the onboarding flow.
	_, err = tx.Exec(ctx, `
		INSERT INTO preferences (user_id, search_radius, min_age, max_age)
		VALUES ($1, 10, 18, 99)
		ON CONFLICT (user_id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *UserRepository) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, date_of_birth, gender, status,
		       occupation, bio, looking_for_relationship, interests,
		       country_code, state, city
		FROM profiles
		WHERE user_id = $1`

	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.Status, &p.Occupation, &p.Bio, &p.LookingForRelationship,
		&p.Interests, &p.CountryCode, &p.State, &p.City)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func (r *UserRepository) CountPhotos(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_photos WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Phone, &u.Email, &u.RegistrationCompleted,
		&u.PhoneVerifiedAt, &u.DisabledAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
