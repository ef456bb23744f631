package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
)

// QuizRepository caches quizzes with TTL to avoid repeated store hits.
type QuizRepository struct {
	loader app.QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
	// gen is bumped by Invalidate; a fill that started under an older
	// generation must not write back what it loaded.
	gen map[string]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader app.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
		gen:    make(map[string]uint64),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.lookup(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.lookup(quizID); ok {
			return quiz, nil
		}

		r.mu.RLock()
		gen := r.gen[quizID]
		r.mu.RUnlock()

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		if r.gen[quizID] == gen {
			r.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: expiresAt}
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached copy so the next read reloads it. Fills already
// in flight are discarded instead of cached.
func (r *QuizRepository) Invalidate(_ context.Context, quizID string) error {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.gen[quizID]++
	r.mu.Unlock()
	r.sf.Forget(quizID)
	return nil
}

func (r *QuizRepository) lookup(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
