package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoryor/auth-service/internal/domain"
	"github.com/yoryor/auth-service/internal/usecase"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	IssueOtp(ctx context.Context, phone, clientIP string) (int, error)
	VerifyOtp(ctx context.Context, phone, code string) (*usecase.AuthResult, error)
	ResolveDestination(ctx context.Context, user *domain.User) (domain.Step, error)
	Me(ctx context.Context, userID string) (*domain.User, domain.Step, error)
	CompleteRegistration(ctx context.Context, userID string, details domain.RegistrationDetails) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type authenticateRequest struct {
	Phone string `json:"phone" binding:"required,e164"`
	Otp   string `json:"otp"   binding:"omitempty,len=6,numeric"`
}

// POST /auth/authenticate
// Without "otp" the request triggers issuance; with it, verification.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.Otp == "" {
		h.issue(c, req.Phone)
		return
	}
	h.verify(c, req.Phone, req.Otp)
}

func (h *AuthHandler) issue(c *gin.Context, phone string) {
	expiresIn, err := h.authUsecase.IssueOtp(c.Request.Context(), phone, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			respondError(c, http.StatusTooManyRequests, errTooManyRequests, codeRateLimited)
			return
		}
		h.logger.Error("issue otp", "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer, codeInternal)
		return
	}

	respondSuccess(c, "OTP sent successfully", gin.H{
		"otp_sent":      true,
		"authenticated": false,
		"phone":         phone,
		"expires_in":    expiresIn,
	})
}

func (h *AuthHandler) verify(c *gin.Context, phone, otp string) {
	result, err := h.authUsecase.VerifyOtp(c.Request.Context(), phone, otp)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOtpInvalid):
			respondError(c, http.StatusUnauthorized, errInvalidCredentials, codeInvalidCredentials)
		case errors.Is(err, domain.ErrUserDisabled):
			respondError(c, http.StatusForbidden, errAccountDisabled, codeAccountDisabled)
		default:
			h.logger.Error("verify otp", "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer, codeInternal)
		}
		return
	}

	step, err := h.authUsecase.ResolveDestination(c.Request.Context(), result.User)
	if err != nil {
		h.logger.Error("resolve destination", "user_id", result.User.ID, "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer, codeInternal)
		return
	}

	respondSuccess(c, "Authentication successful", gin.H{
		"otp_sent":               false,
		"authenticated":          true,
		"registration_completed": result.User.RegistrationCompleted,
		"is_new_user":            result.IsNewUser,
		"user":                   newUserResponse(result.User),
		"token":                  result.Token,
		"redirect_url":           step.Path(),
	})
}

type completeRegistrationRequest struct {
	Email                  *string  `json:"email"         binding:"omitempty,email"`
	FirstName              string   `json:"first_name"    binding:"required,max=50"`
	LastName               string   `json:"last_name"     binding:"required,max=50"`
	DateOfBirth            string   `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Gender                 string   `json:"gender"        binding:"required,oneof=male female non-binary other"`
	Status                 *string  `json:"status"`
	Occupation             *string  `json:"occupation"`
	Bio                    *string  `json:"bio"           binding:"omitempty,max=1000"`
	LookingForRelationship *bool    `json:"looking_for_relationship"`
	Interests              []string `json:"interests"`
	CountryCode            *string  `json:"country_code"  binding:"omitempty,iso3166_1_alpha2"`
	State                  *string  `json:"state"`
	City                   *string  `json:"city"`
}

// POST /auth/complete-registration (Bearer)
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	var req completeRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondValidationError(c, err)
		return
	}
	if age(dob, time.Now()) < 18 {
		c.JSON(422, gin.H{
			"status":     "error",
			"message":    errValidationFailed,
			"error_code": codeValidation,
			"errors":     gin.H{"date_of_birth": []string{"You must be at least 18 years old."}},
		})
		return
	}

	userID := c.GetString("userID")
	user, err := h.authUsecase.CompleteRegistration(c.Request.Context(), userID, domain.RegistrationDetails{
		Email:                  req.Email,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		DateOfBirth:            dob,
		Gender:                 req.Gender,
		Status:                 req.Status,
		Occupation:             req.Occupation,
		Bio:                    req.Bio,
		LookingForRelationship: req.LookingForRelationship,
		Interests:              req.Interests,
		CountryCode:            req.CountryCode,
		State:                  req.State,
		City:                   req.City,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			respondError(c, http.StatusUnauthorized, errInvalidCredentials, codeInvalidCredentials)
		case errors.Is(err, domain.ErrUserDisabled):
			respondError(c, http.StatusForbidden, errAccountDisabled, codeAccountDisabled)
		default:
			h.logger.Error("complete registration", "user_id", userID, "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer, codeInternal)
		}
		return
	}

	respondSuccess(c, "Registration completed", gin.H{
		"user":         newUserResponse(user),
		"redirect_url": domain.StepDashboard.Path(),
	})
}

// GET /auth/me (Bearer)
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")

	user, step, err := h.authUsecase.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, errInvalidCredentials, codeInvalidCredentials)
			return
		}
		h.logger.Error("load current user", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer, codeInternal)
		return
	}

	respondSuccess(c, "OK", gin.H{
		"user":                   newUserResponse(user),
		"registration_completed": user.RegistrationCompleted,
		"redirect_url":           step.Path(),
	})
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return years
}
