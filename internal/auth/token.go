package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quiz-hosting-service/internal/domain"
)

// Claims is the token payload: the user id and role.
type Claims struct {
	UserID string      `json:"id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(user domain.User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token and returns the identity it carries.
// Every failure is reported as domain.ErrUnauthenticated.
func (m *TokenManager) Verify(tokenString string) (domain.Identity, error) {
	if tokenString == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return domain.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
