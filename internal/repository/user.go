package repository

import (
	"context"
	"time"

	"github.com/yoryor/auth-service/internal/domain"
)

type UserRepository interface {
	// FindOrCreateByPhone returns the user owning the phone number, creating
	// one with registration_completed=false when none exists. The bool is
	// true when a new row was inserted.
	FindOrCreateByPhone(ctx context.Context, phone string, now time.Time) (*domain.User, bool, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)

	TouchLastLogin(ctx context.Context, id string, now time.Time) error

	// CompleteRegistration marks the user registered and upserts the profile
	// and preference rows in one transaction.
	CompleteRegistration(ctx context.Context, id string, details domain.RegistrationDetails) error

	// Profile returns nil without error when the user has no profile yet.
	Profile(ctx context.Context, userID string) (*domain.Profile, error)

	CountPhotos(ctx context.Context, userID string) (int, error)
}
