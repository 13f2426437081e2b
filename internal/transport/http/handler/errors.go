package handler

const (
	errInternalServer     = "Internal server error"
	errValidationFailed   = "Validation failed"
	errInvalidCredentials = "Invalid credentials"
	errTooManyRequests    = "Too many OTP requests. Please try again later."
	errAccountDisabled    = "This account has been disabled"

	codeValidation         = "VALIDATION_ERROR"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeRateLimited        = "RATE_LIMIT_EXCEEDED"
	codeAccountDisabled    = "ACCOUNT_DISABLED"
	codeInternal           = "INTERNAL_ERROR"
)
