package memory

import (
	"context"
	"sync"

	"quiz-hosting-service/internal/domain"
)

// QuizStore keeps quiz definitions in process, in creation order.
type QuizStore struct {
	mu      sync.RWMutex
	order   []string
	quizzes map[string]domain.Quiz
}

func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{quizzes: make(map[string]domain.Quiz)}
	for _, q := range seed {
		s.order = append(s.order, q.ID)
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		s.order = append(s.order, quiz.ID)
	}
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *QuizStore) AppendQuestion(_ context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz = cloneQuiz(quiz)
	quiz.Questions = append(quiz.Questions, question)
	s.quizzes[quizID] = quiz
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return cloneQuiz(quiz), nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.quizzes[id].Summary())
	}
	return out, nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}
