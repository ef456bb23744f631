package auth

import (
	"errors"
	"testing"
	"time"

	"quiz-hosting-service/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue(domain.User{ID: "u1", Role: "admin"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	identity, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if identity.UserID != "u1" || identity.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	start := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return start }

	token, err := m.Issue(domain.User{ID: "u1", Role: "user"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	m.now = func() time.Time { return start.Add(61 * time.Minute) }
	if _, err := m.Verify(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other := NewTokenManager("other-secret", time.Hour)
	other.now = func() time.Time { return start }
	m.now = func() time.Time { return start }
	foreign, err := other.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := m.Verify(foreign); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
	if _, err := m.Verify(""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !CheckPassword(hash, "pw") || CheckPassword(hash, "nope") {
		t.Fatal("password check mismatch")
	}
}
