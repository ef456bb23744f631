package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/domain"
)

// statusFor maps domain failures onto stable HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptExpired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messages are the client-facing texts for domain sentinels.
var messages = []struct {
	err error
	msg string
}{
	{domain.ErrQuizNotFound, "Quiz not found"},
	{domain.ErrAttemptNotFound, "Quiz attempt not found"},
	{domain.ErrNoParticipants, "No participants found for this quiz"},
	{domain.ErrAttemptExpired, "Quiz attempt has expired"},
	{domain.ErrUnauthenticated, "Unauthorized"},
	{domain.ErrUserExists, "User already exists"},
	{domain.ErrInvalidCredentials, "Invalid credentials"},
	{domain.ErrUserNotFound, "User not found"},
}

func messageFor(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	// validation errors carry the offending field
	return err.Error()
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	writeErrorMessage(c, log, err, messageFor(err))
}

func writeErrorMessage(c *gin.Context, log *zap.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": msg})
}
