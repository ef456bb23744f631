package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
	"quiz-hosting-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuizLoader: memory.NewQuizStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected quiz cached under quiz:quiz-1")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Title != quiz.Title || len(cached.Questions) != 1 || cached.Questions[0].CorrectAnswer != "4" {
		t.Fatalf("cached quiz lost content: %+v", cached)
	}
}

func TestQuizRepositoryInvalidateDeletesKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuizLoader: memory.NewQuizStore(sampleQuiz())}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected key removed")
	}
	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d", loader.calls)
	}
}

func TestQuizRepositoryDropsFillRacingInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := memory.NewQuizStore(sampleQuiz())
	loader := &gatedLoader{QuizLoader: store, loaded: make(chan struct{}), release: make(chan struct{})}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = repo.GetQuiz(ctx, "quiz-1")
	}()

	<-loader.loaded
	if _, err := store.AppendQuestion(ctx, "quiz-1", domain.Question{ID: "q2", Text: "New", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 10}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	if mr.Exists("quiz:quiz-1") {
		t.Fatalf("stale fill was written back after invalidate")
	}
	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected fresh quiz with 2 questions, got %d", len(quiz.Questions))
	}
}

func TestQuizRepositoryMissingQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewQuizStore(), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
