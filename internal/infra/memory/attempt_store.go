package memory

import (
	"context"
	"sync"

	"quiz-hosting-service/internal/domain"
)

type attemptKey struct {
	quizID string
	userID string
}

// AttemptStore is an in-memory implementation of app.AttemptStore. A single
// mutex makes create-if-absent and upsert atomic per key.
type AttemptStore struct {
	mu       sync.RWMutex
	order    []attemptKey
	attempts map[attemptKey]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[attemptKey]domain.Attempt)}
}

func (s *AttemptStore) StartAttempt(_ context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	key := attemptKey{attempt.QuizID, attempt.UserID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.attempts[key]; ok {
		return cloneAttempt(existing), false, nil
	}
	s.order = append(s.order, key)
	s.attempts[key] = cloneAttempt(attempt)
	return cloneAttempt(attempt), true, nil
}

func (s *AttemptStore) SaveSubmission(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	key := attemptKey{attempt.QuizID, attempt.UserID}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.attempts[key]
	if !ok {
		s.order = append(s.order, key)
		existing = domain.Attempt{QuizID: attempt.QuizID, UserID: attempt.UserID}
	}
	existing.Status = attempt.Status
	existing.Score = attempt.Score
	existing.Responses = attempt.Responses
	existing.SubmittedAt = attempt.SubmittedAt
	s.attempts[key] = cloneAttempt(existing)
	return cloneAttempt(existing), nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, quizID, userID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{quizID, userID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.filter(func(k attemptKey) bool { return k.quizID == quizID }), nil
}

func (s *AttemptStore) ListByUser(_ context.Context, userID string) ([]domain.Attempt, error) {
	return s.filter(func(k attemptKey) bool { return k.userID == userID }), nil
}

func (s *AttemptStore) filter(match func(attemptKey) bool) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Attempt{}
	for _, key := range s.order {
		if match(key) {
			out = append(out, cloneAttempt(s.attempts[key]))
		}
	}
	return out
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	if a.Responses != nil {
		a.Responses = append([]domain.Response{}, a.Responses...)
	}
	return a
}
