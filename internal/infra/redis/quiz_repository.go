package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
)

// QuizRepository caches whole quizzes in Redis as JSON and falls back to a
// loader on cache miss.
//
//	SET quiz:{quizID} {json} EX ttl
//	INCR quiz:{quizID}:gen            on invalidate
//
// A fill only writes when quiz:{quizID}:gen is unchanged since it started.
type QuizRepository struct {
	client *redis.Client
	loader app.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader app.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		gen, err := r.generation(ctx, r.client, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, err
		}
		// best-effort fill; a failed or stale write only costs a later reload
		_ = r.fill(ctx, quizID, gen, data)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate deletes the cached quiz and bumps its generation so fills
// already in flight are discarded.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	r.sf.Forget(quizID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.genKey(quizID))
		pipe.Del(ctx, r.key(quizID))
		return nil
	})
	return err
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

var errStaleFill = errors.New("quiz cache: generation changed during fill")

func (r *QuizRepository) fill(ctx context.Context, quizID string, gen int64, data []byte) error {
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.generation(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(quizID), data, r.ttlWithJitter())
			return nil
		})
		return err
	}, r.genKey(quizID))
}

func (r *QuizRepository) generation(ctx context.Context, c getter, quizID string) (int64, error) {
	gen, err := c.Get(ctx, r.genKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	data, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) genKey(quizID string) string {
	return "quiz:" + quizID + ":gen"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
