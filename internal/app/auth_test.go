package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/auth"
	"quiz-hosting-service/internal/domain"
	"quiz-hosting-service/internal/infra/memory"
)

func newAuthService() *app.AuthService {
	return app.NewAuthService(memory.NewUserStore(), auth.NewTokenManager("test-secret", time.Hour), nil)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	user, err := svc.Register(ctx, "alice", "s3cret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != "user" || user.PasswordHash == "s3cret" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}

	token, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	identity, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity.UserID != user.ID || identity.Role != "user" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestRegisterRejectsDuplicatesAndBlanks(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	if _, err := svc.Register(ctx, "bob", "pw", "admin"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "other", "user"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected user exists, got %v", err)
	}
	if _, err := svc.Register(ctx, "", "pw", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	if _, err := svc.Register(ctx, "dave", "right", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Login(ctx, "dave", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "right"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Verify("garbage"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
