package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yoryor/auth-service/internal/domain"
)

// All endpoints share the same envelope: {status, message, data} on success,
// {status, message, error_code, errors?} on failure.

func respondSuccess(c *gin.Context, message string, data gin.H) {
	c.JSON(200, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{
		"status":     "error",
		"message":    message,
		"error_code": code,
	})
}

func respondValidationError(c *gin.Context, err error) {
	body := gin.H{
		"status":     "error",
		"message":    errValidationFailed,
		"error_code": codeValidation,
	}
	if fields := fieldErrors(err); len(fields) > 0 {
		body["errors"] = fields
	}
	c.JSON(422, body)
}

// fieldErrors flattens validator errors into {field: [messages]}.
func fieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		out[field] = append(out[field], "The "+field+" field is invalid ("+fe.Tag()+").")
	}
	return out
}

type userResponse struct {
	ID                    string     `json:"id"`
	Phone                 *string    `json:"phone"`
	Email                 *string    `json:"email,omitempty"`
	RegistrationCompleted bool       `json:"registration_completed"`
	PhoneVerifiedAt       *time.Time `json:"phone_verified_at,omitempty"`
	LastLoginAt           *time.Time `json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                    u.ID,
		Phone:                 u.Phone,
		Email:                 u.Email,
		RegistrationCompleted: u.RegistrationCompleted,
		PhoneVerifiedAt:       u.PhoneVerifiedAt,
		LastLoginAt:           u.LastLoginAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}
