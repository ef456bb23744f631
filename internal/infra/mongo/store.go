package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quiz-hosting-service/internal/domain"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Store implements the quiz, attempt and user stores on MongoDB. Every
// write touches a single document, which Mongo applies atomically.
type Store struct {
	quizzes  *mongo.Collection
	attempts *mongo.Collection
	users    *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		quizzes:  db.Collection("quizzes"),
		attempts: db.Collection("quizattempts"),
		users:    db.Collection("users"),
	}
}

// EnsureIndexes creates the unique keys the stores depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.attempts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "quiz", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("attempt indexes: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	if _, err := s.quizzes.InsertOne(ctx, quiz); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) AppendQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.quizzes.FindOneAndUpdate(ctx,
		bson.M{"_id": quizID},
		bson.M{"$push": bson.M{"questions": question}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("append question: %w", err)
	}
	return quiz, nil
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.quizzes.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	cur, err := s.quizzes.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"title": 1, "totalScore": 1, "duration": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.QuizSummary{}
	for cur.Next(ctx) {
		var q domain.Quiz
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		out = append(out, q.Summary())
	}
	return out, cur.Err()
}

// StartAttempt inserts through an upsert whose fields are all $setOnInsert,
// so an existing attempt is returned untouched.
func (s *Store) StartAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	if attempt.Responses == nil {
		attempt.Responses = []domain.Response{}
	}
	res, err := s.attempts.UpdateOne(ctx,
		bson.M{"quiz": attempt.QuizID, "user": attempt.UserID},
		bson.M{"$setOnInsert": bson.M{
			"status":    attempt.Status,
			"score":     attempt.Score,
			"responses": attempt.Responses,
			"startedAt": attempt.StartedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// lost the race to a concurrent insert of the same key
		res, err = &mongo.UpdateResult{}, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("start attempt: %w", err)
	}
	stored, err := s.GetAttempt(ctx, attempt.QuizID, attempt.UserID)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	return stored, res.UpsertedCount == 1, nil
}

func (s *Store) SaveSubmission(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	if attempt.Responses == nil {
		attempt.Responses = []domain.Response{}
	}
	var stored domain.Attempt
	err := s.attempts.FindOneAndUpdate(ctx,
		bson.M{"quiz": attempt.QuizID, "user": attempt.UserID},
		bson.M{"$set": bson.M{
			"status":      attempt.Status,
			"score":       attempt.Score,
			"responses":   attempt.Responses,
			"submittedAt": attempt.SubmittedAt,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("save submission: %w", err)
	}
	return stored, nil
}

func (s *Store) GetAttempt(ctx context.Context, quizID, userID string) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := s.attempts.FindOne(ctx, bson.M{"quiz": quizID, "user": userID}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

func (s *Store) ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.findAttempts(ctx, bson.M{"quiz": quizID})
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	return s.findAttempts(ctx, bson.M{"user": userID})
}

func (s *Store) findAttempts(ctx context.Context, filter bson.M) ([]domain.Attempt, error) {
	cur, err := s.attempts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := []domain.Attempt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
