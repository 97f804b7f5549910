package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/entity"
	"github.com/fforsikring/prisberegner/internal/repository"
)

func TestUserServiceCreateUser(t *testing.T) {
	t.Run("hashes password and defaults role", func(t *testing.T) {
		var capturedHash, capturedRole string
		svc := NewUserService(&stubUsersRepo{
			create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
				capturedHash = passwordHash
				capturedRole = role
				return &entity.User{ID: uuid.New(), Email: email, Role: role}, nil
			},
		})

		resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{Email: "new@fforsikring.dk", Password: "pw"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Role != "user" || capturedRole != "user" {
			t.Fatalf("expected default role user, got %s", capturedRole)
		}
		if bcrypt.CompareHashAndPassword([]byte(capturedHash), []byte("pw")) != nil {
			t.Fatalf("stored hash does not match password")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := NewUserService(&stubUsersRepo{
			create: func(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
				return nil, repository.ErrEmailDuplicate
			},
		})

		if _, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{Email: "dup@x.dk", Password: "pw"}); !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := NewUserService(&stubUsersRepo{})
		if _, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{}); err == nil {
			t.Fatalf("expected error for empty request")
		}
	})
}

func TestUserServiceListUsers(t *testing.T) {
	svc := NewUserService(&stubUsersRepo{
		list: func(ctx context.Context) ([]entity.User, error) {
			return []entity.User{{ID: uuid.New(), Email: "a@x.dk", Role: "admin"}}, nil
		},
	})

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].Email != "a@x.dk" {
		t.Fatalf("unexpected users: %+v", users)
	}
}
