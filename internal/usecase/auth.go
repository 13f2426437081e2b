package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yoryor/auth-service/internal/domain"
	"github.com/yoryor/auth-service/internal/metrics"
	"github.com/yoryor/auth-service/internal/notify"
	"github.com/yoryor/auth-service/internal/ratelimit"
	"github.com/yoryor/auth-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultOtpTTL     = 5 * time.Minute
	defaultOtpLength  = 6
	defaultRateLimit  = 5
	defaultRateWindow = 10 * time.Minute
	defaultJWTTTL     = 24 * time.Hour
)

// Options carries the tunables of the auth flow. Zero values fall back to
// the defaults above.
type Options struct {
	OtpTTL     time.Duration
	OtpLength  int
	RateLimit  int
	RateWindow time.Duration
	JWTTTL     time.Duration
}

type AuthUsecase struct {
	users   repository.UserRepository
	otps    repository.OtpRepository
	limiter ratelimit.Limiter
	sms     notify.SMSSender
	email   notify.EmailSender
	logger  *slog.Logger
	jwtKey  []byte

	otpTTL     time.Duration
	otpLength  int
	rateLimit  int
	rateWindow time.Duration
	jwtTTL     time.Duration

	now func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	otps repository.OtpRepository,
	limiter ratelimit.Limiter,
	sms notify.SMSSender,
	email notify.EmailSender,
	logger *slog.Logger,
	jwtKey []byte,
	opts Options,
) *AuthUsecase {
	if opts.OtpTTL == 0 {
		opts.OtpTTL = defaultOtpTTL
	}
	if opts.OtpLength == 0 {
		opts.OtpLength = defaultOtpLength
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateWindow == 0 {
		opts.RateWindow = defaultRateWindow
	}
	if opts.JWTTTL == 0 {
		opts.JWTTTL = defaultJWTTTL
	}

	return &AuthUsecase{
		users:      users,
		otps:       otps,
		limiter:    limiter,
		sms:        sms,
		email:      email,
		logger:     logger.With("component", "auth_usecase"),
		jwtKey:     jwtKey,
		otpTTL:     opts.OtpTTL,
		otpLength:  opts.OtpLength,
		rateLimit:  opts.RateLimit,
		rateWindow: opts.RateWindow,
		jwtTTL:     opts.JWTTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Tests use this for expiry behavior.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

// IssueOtp generates a fresh code for the phone, stores its hash with a TTL
// and dispatches the plaintext over SMS. Any prior unused codes for the
// phone are invalidated. Returns the code lifetime in seconds.
func (u *AuthUsecase) IssueOtp(ctx context.Context, phone, clientIP string) (int, error) {
	keys := []string{"otp:phone:" + phone}
	if clientIP != "" {
		keys = append(keys, "otp:ip:"+clientIP)
	}
	for _, key := range keys {
		allowed, err := u.limiter.Allow(ctx, key, u.rateLimit, u.rateWindow)
		if err != nil {
			return 0, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			metrics.OtpRateLimitedTotal.Inc()
			return 0, domain.ErrRateLimited
		}
	}

	code, err := randomCode(u.otpLength)
	if err != nil {
		return 0, fmt.Errorf("generate otp code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash otp code: %w", err)
	}

	expiresAt := u.now().Add(u.otpTTL)
	if err := u.otps.Replace(ctx, phone, string(hash), expiresAt); err != nil {
		return 0, fmt.Errorf("store otp code: %w", err)
	}

	// Fire-and-forget: a delivery failure must not roll back the issuance,
	// the client can always request a new code.
	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(u.otpTTL.Minutes()))
	if err := u.sms.Send(ctx, phone, message); err != nil {
		u.logger.Warn("otp sms dispatch failed", "phone", phone, "error", err)
	}

	metrics.OtpIssuedTotal.Inc()
	return int(u.otpTTL.Seconds()), nil
}

// AuthResult is the outcome of a successful OTP verification.
type AuthResult struct {
	User      *domain.User
	Token     string
	IsNewUser bool
}

// VerifyOtp validates the submitted code and signs the user in, creating the
// account on first verification. Not-found, expired, mismatched and
// already-used codes all surface as domain.ErrOtpInvalid.
func (u *AuthUsecase) VerifyOtp(ctx context.Context, phone, code string) (*AuthResult, error) {
	otp, err := u.otps.LatestActive(ctx, phone, u.now())
	if err != nil {
		if errors.Is(err, domain.ErrOtpNotFound) {
			metrics.OtpVerifyTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrOtpInvalid
		}
		return nil, fmt.Errorf("load otp code: %w", err)
	}

	if !otp.Active(u.now()) {
		metrics.OtpVerifyTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrOtpInvalid
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		metrics.OtpVerifyTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrOtpInvalid
	}

	// Single-use enforcement: Consume is a compare-and-swap on the used
	// flag, so of two concurrent requests with the same code only one
	// proceeds past this point.
	consumed, err := u.otps.Consume(ctx, otp.ID)
	if err != nil {
		return nil, fmt.Errorf("consume otp code: %w", err)
	}
	if !consumed {
		metrics.OtpVerifyTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrOtpInvalid
	}

	user, created, err := u.users.FindOrCreateByPhone(ctx, phone, u.now())
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	if created {
		metrics.UsersCreatedTotal.Inc()
	}

	if user.DisabledAt != nil {
		metrics.OtpVerifyTotal.WithLabelValues("disabled").Inc()
		return nil, domain.ErrUserDisabled
	}

	if err := u.users.TouchLastLogin(ctx, user.ID, u.now()); err != nil {
		u.logger.Warn("touch last login", "user_id", user.ID, "error", err)
	}

	token, err := u.signToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign jwt: %w", err)
	}

	metrics.OtpVerifyTotal.WithLabelValues("success").Inc()
	return &AuthResult{User: user, Token: token, IsNewUser: created}, nil
}

// ResolveDestination returns where the client should route the user after
// authentication: the dashboard for registered users, otherwise the first
// unmet onboarding step.
func (u *AuthUsecase) ResolveDestination(ctx context.Context, user *domain.User) (domain.Step, error) {
	if user.RegistrationCompleted {
		return domain.StepDashboard, nil
	}

	profile, err := u.users.Profile(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	photos, err := u.users.CountPhotos(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("count photos: %w", err)
	}

	return domain.NextStep(user, profile, photos), nil
}

// Me loads the current user and their routing destination.
func (u *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, domain.Step, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	step, err := u.ResolveDestination(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, step, nil
}

// CompleteRegistration attaches profile and preference records and marks the
// onboarding flow finished. A welcome email is dispatched fire-and-forget.
func (u *AuthUsecase) CompleteRegistration(ctx context.Context, userID string, details domain.RegistrationDetails) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DisabledAt != nil {
		return nil, domain.ErrUserDisabled
	}

	if err := u.users.CompleteRegistration(ctx, userID, details); err != nil {
		return nil, fmt.Errorf("complete registration: %w", err)
	}

	user, err = u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	if user.Email != nil {
		body := fmt.Sprintf("<p>Hi %s, your profile is ready. Happy matching!</p>", details.FirstName)
		if err := u.email.Send(ctx, *user.Email, "Welcome to YorYor", body); err != nil {
			u.logger.Warn("welcome email dispatch failed", "user_id", userID, "error", err)
		}
	}

	return user, nil
}

func (u *AuthUsecase) signToken(user *domain.User) (string, error) {
	now := u.now()
	claims := jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(u.jwtTTL).Unix(),
	}
	if user.Phone != nil {
		claims["phone"] = *user.Phone
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(u.jwtKey)
}

// randomCode returns a uniformly random zero-padded numeric code.
func randomCode(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
