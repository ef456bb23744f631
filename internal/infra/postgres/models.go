package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-hosting-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID                string            `bun:"id,pk"`
	Title             string            `bun:"title"`
	NumberOfQuestions int               `bun:"number_of_questions"`
	TotalScore        int               `bun:"total_score"`
	Duration          int               `bun:"duration"`
	Questions         []domain.Question `bun:"questions,type:jsonb"`
	CreatedAt         time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toQuizRow(q domain.Quiz) *quizRow {
	questions := q.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return &quizRow{
		ID:                q.ID,
		Title:             q.Title,
		NumberOfQuestions: q.NumberOfQuestions,
		TotalScore:        q.TotalScore,
		Duration:          q.Duration,
		Questions:         questions,
		CreatedAt:         q.CreatedAt,
	}
}

func (r *quizRow) toDomain() domain.Quiz {
	questions := r.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return domain.Quiz{
		ID:                r.ID,
		Title:             r.Title,
		NumberOfQuestions: r.NumberOfQuestions,
		TotalScore:        r.TotalScore,
		Duration:          r.Duration,
		Questions:         questions,
		CreatedAt:         r.CreatedAt,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	QuizID      string            `bun:"quiz_id,pk"`
	UserID      string            `bun:"user_id,pk"`
	Status      string            `bun:"status"`
	Score       int               `bun:"score"`
	Responses   []domain.Response `bun:"responses,type:jsonb"`
	StartedAt   *time.Time        `bun:"started_at"`
	SubmittedAt *time.Time        `bun:"submitted_at"`
	CreatedAt   time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toAttemptRow(a domain.Attempt) *attemptRow {
	responses := a.Responses
	if responses == nil {
		responses = []domain.Response{}
	}
	return &attemptRow{
		QuizID:      a.QuizID,
		UserID:      a.UserID,
		Status:      string(a.Status),
		Score:       a.Score,
		Responses:   responses,
		StartedAt:   a.StartedAt,
		SubmittedAt: a.SubmittedAt,
	}
}

func (r *attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Status:      domain.AttemptStatus(r.Status),
		Score:       r.Score,
		Responses:   r.Responses,
		StartedAt:   r.StartedAt,
		SubmittedAt: r.SubmittedAt,
	}
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username"`
	PasswordHash string    `bun:"password_hash"`
	Role         string    `bun:"role"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
	}
}
