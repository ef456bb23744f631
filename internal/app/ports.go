package app

import (
	"context"

	"quiz-hosting-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (memory, Postgres, Mongo).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore persists quiz definitions.
type QuizStore interface {
	QuizLoader
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	// AppendQuestion must append atomically and fail with domain.ErrQuizNotFound for unknown quizzes.
	AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// QuizRepository serves quiz reads through a cache.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// AttemptStore owns one attempt per (quiz, user).
type AttemptStore interface {
	// StartAttempt creates the attempt if absent, else returns the stored one
	// untouched. created reports which of the two happened.
	StartAttempt(ctx context.Context, attempt domain.Attempt) (stored domain.Attempt, created bool, err error)
	// SaveSubmission creates or replaces status, score, responses and submittedAt.
	SaveSubmission(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	GetAttempt(ctx context.Context, quizID, userID string) (domain.Attempt, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// EventPublisher emits domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
