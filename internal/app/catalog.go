package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/domain"
)

// CatalogService owns quiz definitions and allocates their identifiers.
type CatalogService struct {
	store  QuizStore
	cache  QuizRepository
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
	newID  func() string

	// StrictAuthoring rejects questions whose correct answer is not among the options.
	StrictAuthoring bool
}

func NewCatalogService(store QuizStore, cache QuizRepository, events EventPublisher, log *zap.Logger) *CatalogService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		store:  store,
		cache:  cache,
		events: events,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates the input and stores a quiz with no questions.
func (s *CatalogService) Create(ctx context.Context, spec domain.QuizSpec) (domain.Quiz, error) {
	title := strings.TrimSpace(spec.Title)
	switch {
	case title == "":
		return domain.Quiz{}, domain.Invalid("title", "is required")
	case spec.Duration <= 0:
		return domain.Quiz{}, domain.Invalid("duration", "must be positive")
	case spec.TotalScore <= 0:
		return domain.Quiz{}, domain.Invalid("totalScore", "must be positive")
	case spec.NumberOfQuestions < 0:
		return domain.Quiz{}, domain.Invalid("numberOfQuestions", "must not be negative")
	}

	quiz := domain.Quiz{
		ID:                s.newID(),
		Title:             title,
		NumberOfQuestions: spec.NumberOfQuestions,
		TotalScore:        spec.TotalScore,
		Duration:          spec.Duration,
		Questions:         []domain.Question{},
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}

	s.log.Info("quiz created", zap.String("quiz_id", quiz.ID), zap.String("title", quiz.Title))
	s.publish(ctx, "quiz.created", quiz.Summary())
	return quiz, nil
}

// AddQuestion appends a question with a fresh id to an existing quiz.
func (s *CatalogService) AddQuestion(ctx context.Context, quizID string, spec domain.QuestionSpec) (domain.Quiz, error) {
	if err := s.validateQuestion(spec); err != nil {
		return domain.Quiz{}, err
	}

	question := domain.Question{
		ID:            s.newID(),
		Text:          strings.TrimSpace(spec.Text),
		Options:       append([]string(nil), spec.Options...),
		CorrectAnswer: spec.CorrectAnswer,
		Marks:         spec.Marks,
	}
	quiz, err := s.store.AppendQuestion(ctx, quizID, question)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.log.Warn("quiz cache invalidation failed", zap.String("quiz_id", quizID), zap.Error(err))
	}

	s.log.Info("question added", zap.String("quiz_id", quizID), zap.String("question_id", question.ID))
	s.publish(ctx, "question.added", map[string]string{"quizId": quizID, "questionId": question.ID})
	return quiz, nil
}

func (s *CatalogService) validateQuestion(spec domain.QuestionSpec) error {
	if strings.TrimSpace(spec.Text) == "" {
		return domain.Invalid("questionText", "is required")
	}
	if len(spec.Options) == 0 {
		return domain.Invalid("options", "at least one option is required")
	}
	if spec.Marks <= 0 {
		return domain.Invalid("marks", "must be positive")
	}
	if s.StrictAuthoring {
		for _, opt := range spec.Options {
			if opt == spec.CorrectAnswer {
				return nil
			}
		}
		return domain.Invalid("correctAnswer", "must be one of the options")
	}
	return nil
}

// Get returns the full quiz, answers included.
func (s *CatalogService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.cache.GetQuiz(ctx, quizID)
}

// List returns the summary of every quiz.
func (s *CatalogService) List(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.store.ListQuizzes(ctx)
}

// Questions returns the participant-facing sheet with answers and marks withheld.
func (s *CatalogService) Questions(ctx context.Context, quizID string) (domain.QuestionSheet, error) {
	quiz, err := s.cache.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuestionSheet{}, err
	}
	views := make([]domain.QuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		views = append(views, domain.QuestionView{ID: q.ID, Title: q.Text, Options: q.Options})
	}
	return domain.QuestionSheet{
		QuizTitle:  quiz.Title,
		Duration:   quiz.Duration,
		TotalScore: quiz.TotalScore,
		Questions:  views,
	}, nil
}

func (s *CatalogService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.log.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
