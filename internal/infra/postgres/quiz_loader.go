package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-hosting-service/internal/domain"
)

// QuizLoader reads quizzes straight off a pgx pool; it backs the quiz cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, number_of_questions, total_score, duration, questions, created_at FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.NumberOfQuestions, &quiz.TotalScore, &quiz.Duration, &raw, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
