package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoryor/auth-service/internal/domain"
	"github.com/yoryor/auth-service/internal/usecase"
)

type fakeAuthUsecase struct {
	issueOtp             func(ctx context.Context, phone, clientIP string) (int, error)
	verifyOtp            func(ctx context.Context, phone, code string) (*usecase.AuthResult, error)
	resolveDestination   func(ctx context.Context, user *domain.User) (domain.Step, error)
	me                   func(ctx context.Context, userID string) (*domain.User, domain.Step, error)
	completeRegistration func(ctx context.Context, userID string, details domain.RegistrationDetails) (*domain.User, error)
}

func (f *fakeAuthUsecase) IssueOtp(ctx context.Context, phone, clientIP string) (int, error) {
	return f.issueOtp(ctx, phone, clientIP)
}

func (f *fakeAuthUsecase) VerifyOtp(ctx context.Context, phone, code string) (*usecase.AuthResult, error) {
	return f.verifyOtp(ctx, phone, code)
}

func (f *fakeAuthUsecase) ResolveDestination(ctx context.Context, user *domain.User) (domain.Step, error) {
	if f.resolveDestination == nil {
		return domain.StepBasicInfo, nil
	}
	return f.resolveDestination(ctx, user)
}

func (f *fakeAuthUsecase) Me(ctx context.Context, userID string) (*domain.User, domain.Step, error) {
	return f.me(ctx, userID)
}

func (f *fakeAuthUsecase) CompleteRegistration(ctx context.Context, userID string, details domain.RegistrationDetails) (*domain.User, error) {
	return f.completeRegistration(ctx, userID, details)
}

func newTestRouter(fake *fakeAuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(fake, slog.Default())

	r := gin.New()
	r.POST("/auth/authenticate", h.Authenticate)

	// Protected routes get the user id straight from a stub, the JWT
	// middleware has its own tests.
	authed := r.Group("/auth")
	authed.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
		c.Next()
	})
	authed.POST("/complete-registration", h.CompleteRegistration)
	authed.GET("/me", h.Me)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testUser() *domain.User {
	phone := "+998901234567"
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.User{ID: "user-1", Phone: &phone, PhoneVerifiedAt: &now, CreatedAt: now, UpdatedAt: now}
}

func TestAuthenticate_MissingPhone(t *testing.T) {
	r := newTestRouter(&fakeAuthUsecase{})

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{}`)

	if w.Code != 422 {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "VALIDATION_ERROR") {
		t.Errorf("body missing VALIDATION_ERROR: %s", w.Body.String())
	}
}

func TestAuthenticate_MalformedPhone(t *testing.T) {
	r := newTestRouter(&fakeAuthUsecase{})

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"12345"}`)

	if w.Code != 422 {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "phone") {
		t.Errorf("body missing field error: %s", w.Body.String())
	}
}

func TestAuthenticate_WrongOtpLength(t *testing.T) {
	r := newTestRouter(&fakeAuthUsecase{})

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567","otp":"12345"}`)

	if w.Code != 422 {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestAuthenticate_IssueSuccess(t *testing.T) {
	var gotPhone string
	fake := &fakeAuthUsecase{
		issueOtp: func(_ context.Context, phone, _ string) (int, error) {
			gotPhone = phone
			return 300, nil
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotPhone != "+998901234567" {
		t.Errorf("usecase got phone %q", gotPhone)
	}
	body := w.Body.String()
	for _, want := range []string{`"otp_sent":true`, `"authenticated":false`, `"expires_in":300`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestAuthenticate_IssueRateLimited(t *testing.T) {
	fake := &fakeAuthUsecase{
		issueOtp: func(_ context.Context, _, _ string) (int, error) {
			return 0, domain.ErrRateLimited
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567"}`)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "RATE_LIMIT_EXCEEDED") {
		t.Errorf("body missing RATE_LIMIT_EXCEEDED: %s", w.Body.String())
	}
}

func TestAuthenticate_VerifyInvalidCode(t *testing.T) {
	fake := &fakeAuthUsecase{
		verifyOtp: func(_ context.Context, _, _ string) (*usecase.AuthResult, error) {
			return nil, domain.ErrOtpInvalid
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567","otp":"123456"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INVALID_CREDENTIALS") {
		t.Errorf("body missing INVALID_CREDENTIALS: %s", w.Body.String())
	}
}

func TestAuthenticate_VerifyDisabledAccount(t *testing.T) {
	fake := &fakeAuthUsecase{
		verifyOtp: func(_ context.Context, _, _ string) (*usecase.AuthResult, error) {
			return nil, domain.ErrUserDisabled
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567","otp":"123456"}`)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ACCOUNT_DISABLED") {
		t.Errorf("body missing ACCOUNT_DISABLED: %s", w.Body.String())
	}
}

func TestAuthenticate_VerifyInternalError(t *testing.T) {
	fake := &fakeAuthUsecase{
		verifyOtp: func(_ context.Context, _, _ string) (*usecase.AuthResult, error) {
			return nil, errors.New("db down")
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567","otp":"123456"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Errorf("internal error leaked to client: %s", w.Body.String())
	}
}

func TestAuthenticate_VerifySuccess(t *testing.T) {
	fake := &fakeAuthUsecase{
		verifyOtp: func(_ context.Context, _, _ string) (*usecase.AuthResult, error) {
			return &usecase.AuthResult{User: testUser(), Token: "signed.jwt.token", IsNewUser: true}, nil
		},
		resolveDestination: func(_ context.Context, _ *domain.User) (domain.Step, error) {
			return domain.StepBasicInfo, nil
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/auth/authenticate", `{"phone":"+998901234567","otp":"123456"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		`"authenticated":true`,
		`"is_new_user":true`,
		`"token":"signed.jwt.token"`,
		`"redirect_url":"/onboard/basic-info"`,
		`"registration_completed":false`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestCompleteRegistration_Underage(t *testing.T) {
	r := newTestRouter(&fakeAuthUsecase{})

	dob := time.Now().AddDate(-17, 0, 0).Format("2006-01-02")
	body := `{"first_name":"A","last_name":"B","date_of_birth":"` + dob + `","gender":"female"}`
	w := doJSON(t, r, http.MethodPost, "/auth/complete-registration", body)

	if w.Code != 422 {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "at least 18") {
		t.Errorf("body missing age error: %s", w.Body.String())
	}
}

func TestCompleteRegistration_InvalidGender(t *testing.T) {
	r := newTestRouter(&fakeAuthUsecase{})

	body := `{"first_name":"A","last_name":"B","date_of_birth":"1995-04-12","gender":"robot"}`
	w := doJSON(t, r, http.MethodPost, "/auth/complete-registration", body)

	if w.Code != 422 {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestCompleteRegistration_Success(t *testing.T) {
	var gotUserID string
	var gotDetails domain.RegistrationDetails
	fake := &fakeAuthUsecase{
		completeRegistration: func(_ context.Context, userID string, details domain.RegistrationDetails) (*domain.User, error) {
			gotUserID = userID
			gotDetails = details
			u := testUser()
			u.RegistrationCompleted = true
			return u, nil
		},
	}
	r := newTestRouter(fake)

	body := `{"first_name":"Aziza","last_name":"K","date_of_birth":"1995-04-12","gender":"female","interests":["travel"],"country_code":"UZ"}`
	w := doJSON(t, r, http.MethodPost, "/auth/complete-registration", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want user-1", gotUserID)
	}
	if gotDetails.FirstName != "Aziza" || gotDetails.Gender != "female" {
		t.Errorf("details not forwarded: %+v", gotDetails)
	}
	if !strings.Contains(w.Body.String(), `"redirect_url":"/dashboard"`) {
		t.Errorf("body missing dashboard redirect: %s", w.Body.String())
	}
}

func TestMe_Success(t *testing.T) {
	fake := &fakeAuthUsecase{
		me: func(_ context.Context, userID string) (*domain.User, domain.Step, error) {
			if userID != "user-1" {
				t.Errorf("me called with %q", userID)
			}
			return testUser(), domain.StepPhotos, nil
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodGet, "/auth/me", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"redirect_url":"/onboard/photos"`) {
		t.Errorf("body missing redirect: %s", w.Body.String())
	}
}

func TestMe_UnknownUser(t *testing.T) {
	fake := &fakeAuthUsecase{
		me: func(_ context.Context, _ string) (*domain.User, domain.Step, error) {
			return nil, "", domain.ErrUserNotFound
		},
	}
	r := newTestRouter(fake)

	w := doJSON(t, r, http.MethodGet, "/auth/me", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
