package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/entity"
	"github.com/fforsikring/prisberegner/internal/repository"
	"github.com/fforsikring/prisberegner/internal/service"
)

type recordingUsersRepo struct {
	created  []string
	existing map[string]bool
}

func (r *recordingUsersRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *recordingUsersRepo) Create(_ context.Context, email, passwordHash, role string) (*entity.User, error) {
	if r.existing[email] {
		return nil, repository.ErrEmailDuplicate
	}
	r.created = append(r.created, email)
	return &entity.User{ID: uuid.New(), Email: email, Role: role}, nil
}

func (r *recordingUsersRepo) List(context.Context) ([]entity.User, error) {
	return []entity.User{{ID: uuid.New(), Email: "admin@fforsikring.dk", Role: "admin"}}, nil
}

func postUsers(t *testing.T, h *UserAdminHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestUserAdminHandler_Create(t *testing.T) {
	repo := &recordingUsersRepo{existing: map[string]bool{"taken@fforsikring.dk": true}}
	h := NewUserAdminHandler(service.NewUserService(repo))

	t.Run("missing password", func(t *testing.T) {
		rec := postUsers(t, h, `{"email":"ny@fforsikring.dk"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := postUsers(t, h, `{"email":"taken@fforsikring.dk","password":"hunter2"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("created with default role", func(t *testing.T) {
		rec := postUsers(t, h, `{"email":"ny@fforsikring.dk","password":"hunter2"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"role":"user"`) {
			t.Fatalf("expected default role, got %s", rec.Body.String())
		}
	})
}

func TestUserAdminHandler_List(t *testing.T) {
	h := NewUserAdminHandler(service.NewUserService(&recordingUsersRepo{}))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "admin@fforsikring.dk") {
		t.Fatalf("expected listed user, got %s", rec.Body.String())
	}
}
