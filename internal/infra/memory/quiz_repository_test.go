package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewQuizStore(sampleQuiz())}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryInvalidateReloads(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore(sampleQuiz())
	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if _, err := store.AppendQuestion(ctx, "quiz-1", domain.Question{ID: "q2", Text: "New", Options: []string{"x"}, CorrectAnswer: "x", Marks: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if loader.calls != 2 || len(quiz.Questions) != 2 {
		t.Fatalf("expected reload with 2 questions, calls=%d questions=%d", loader.calls, len(quiz.Questions))
	}
}

func TestQuizRepositoryDropsFillRacingInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore(sampleQuiz())
	loader := newGatedLoader(store)
	repo := NewQuizRepository(loader, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = repo.GetQuiz(ctx, "quiz-1")
	}()

	// The fill has read the one-question quiz and is parked.
	<-loader.loaded
	if _, err := store.AppendQuestion(ctx, "quiz-1", domain.Question{ID: "q2", Text: "New", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 10}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected fresh quiz with 2 questions, got %d", len(quiz.Questions))
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewQuizRepository(NewQuizStore(), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	app.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

// gatedLoader parks its first load after reading until release is closed.
type gatedLoader struct {
	app.QuizLoader
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newGatedLoader(inner app.QuizLoader) *gatedLoader {
	return &gatedLoader{QuizLoader: inner, loaded: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := l.QuizLoader.LoadQuiz(ctx, quizID)
	l.once.Do(func() {
		close(l.loaded)
		<-l.release
	})
	return quiz, err
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		Title:      "Arithmetic",
		TotalScore: 1,
		Duration:   10,
		Questions: []domain.Question{
			{
				ID:            "q1",
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4"},
				CorrectAnswer: "4",
				Marks:         1,
			},
		},
	}
}
