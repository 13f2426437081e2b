package repository

import (
	"context"
	"time"

	"github.com/yoryor/auth-service/internal/domain"
)

type OtpRepository interface {
	// Replace deletes all unused codes for the phone and inserts a new one,
	// in a single transaction, so at most one active code exists per phone.
	Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error

	// LatestActive returns the most recently created unused code for the
	// phone that expires after now, or domain.ErrOtpNotFound.
	LatestActive(ctx context.Context, phone string, now time.Time) (*domain.OtpCode, error)

	// Consume flips used=false -> true. It returns false when the code was
	// already consumed, which makes concurrent verification attempts safe:
	// exactly one caller observes true.
	Consume(ctx context.Context, id string) (bool, error)

	// PurgeBefore removes used codes and expired unused codes older than the
	// cutoff. Returns the number of deleted rows.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
