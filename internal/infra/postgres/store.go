package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-hosting-service/internal/domain"
)

// Open connects bun to Postgres at dsn.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements the quiz, attempt and user stores on top of bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.db.NewInsert().Model(toQuizRow(quiz)).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

// AppendQuestion appends in one statement so concurrent authors cannot lose writes.
func (s *Store) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	raw, err := json.Marshal([]domain.Question{question})
	if err != nil {
		return domain.Quiz{}, err
	}
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("questions = questions || ?::jsonb", string(raw)).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("append question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.LoadQuiz(ctx, quizID)
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var rows []quizRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "title", "total_score", "duration").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.QuizSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.QuizSummary{ID: r.ID, Title: r.Title, TotalScore: r.TotalScore, Duration: r.Duration})
	}
	return out, nil
}

// StartAttempt relies on the (quiz_id, user_id) primary key: concurrent
// starts insert at most one row and all of them read it back.
func (s *Store) StartAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	res, err := s.db.NewInsert().
		Model(toAttemptRow(attempt)).
		On("CONFLICT (quiz_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("start attempt: %w", err)
	}
	n, _ := res.RowsAffected()

	stored, err := s.GetAttempt(ctx, attempt.QuizID, attempt.UserID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	return stored, n == 1, nil
}

func (s *Store) SaveSubmission(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	row := toAttemptRow(attempt)
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (quiz_id, user_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("score = EXCLUDED.score").
		Set("responses = EXCLUDED.responses").
		Set("submitted_at = EXCLUDED.submitted_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("save submission: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetAttempt(ctx context.Context, quizID, userID string) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "quiz_id = ?", quizID)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "user_id = ?", userID)
}

func (s *Store) listAttempts(ctx context.Context, where string, arg string) ([]domain.Attempt, error) {
	var rows []attemptRow
	if err := s.db.NewSelect().Model(&rows).Where(where, arg).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.db.NewInsert().Model(&userRow{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
	}).Exec(ctx)
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].toDomain()
	}
	return out, nil
}
