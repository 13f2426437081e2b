package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserDisabled = errors.New("account is disabled")
	ErrOtpNotFound  = errors.New("no active otp code")

	// ErrOtpInvalid covers not-found, expired, mismatched and already-used
	// codes. Callers must not be able to tell these apart.
	ErrOtpInvalid = errors.New("otp is invalid or expired")

	ErrRateLimited = errors.New("too many otp requests")
)

type User struct {
	ID                    string
	Phone                 *string
	Email                 *string
	RegistrationCompleted bool
	PhoneVerifiedAt       *time.Time
	DisabledAt            *time.Time
	LastLoginAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OtpCode is a one-time phone verification code. Only the bcrypt hash of the
// code is persisted, never the plaintext. At most one unused, unexpired row
// exists per phone number at any time.
type OtpCode struct {
	ID        string
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Active reports whether the code can still be consumed at the given time.
func (c *OtpCode) Active(now time.Time) bool {
	return !c.Used && c.ExpiresAt.After(now)
}
