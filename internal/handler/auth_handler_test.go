package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/fforsikring/prisberegner/internal/auth"
	"github.com/fforsikring/prisberegner/internal/entity"
	"github.com/fforsikring/prisberegner/internal/repository"
	"github.com/fforsikring/prisberegner/internal/service"
)

type fixedUsersRepo struct {
	user *entity.User
}

func (r *fixedUsersRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, repository.ErrUserNotFound
	}
	return r.user, nil
}

func (r *fixedUsersRepo) Create(context.Context, string, string, string) (*entity.User, error) {
	return nil, repository.ErrEmailDuplicate
}

func (r *fixedUsersRepo) List(context.Context) ([]entity.User, error) {
	if r.user == nil {
		return nil, nil
	}
	return []entity.User{*r.user}, nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := &fixedUsersRepo{user: &entity.User{
		ID:           uuid.New(),
		Email:        "admin@fforsikring.dk",
		PasswordHash: string(hash),
		Role:         "admin",
	}}
	svc := service.NewAuthService(repo, auth.NewJWTManager("test-secret", time.Hour))
	return NewAuthHandler(svc)
}

func postLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestAuthHandler_Login(t *testing.T) {
	h := newAuthHandler(t)

	t.Run("missing fields", func(t *testing.T) {
		rec := postLogin(t, h, `{"email":"admin@fforsikring.dk"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := postLogin(t, h, `{"email":"admin@fforsikring.dk","password":"nope"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := postLogin(t, h, `{"email":"ghost@fforsikring.dk","password":"hunter2"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid credentials", func(t *testing.T) {
		rec := postLogin(t, h, `{"email":"admin@fforsikring.dk","password":"hunter2"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "access_token") {
			t.Fatalf("expected an access token, got %s", rec.Body.String())
		}
	})
}
