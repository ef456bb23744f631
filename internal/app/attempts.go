package app

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"quiz-hosting-service/internal/domain"
	"quiz-hosting-service/internal/metrics"
)

// AttemptOptions switch between the lenient historical rules and stricter ones.
type AttemptOptions struct {
	StrictScoring       bool
	EnforceDeadline     bool
	EmptyParticipantsOK bool
	// Clock stamps startedAt and submittedAt. Defaults to time.Now.
	Clock func() time.Time
}

// AttemptService drives the attempt lifecycle: start, submit and result reads.
type AttemptService struct {
	quizzes  QuizRepository
	catalog  QuizStore
	attempts AttemptStore
	users    UserStore
	boards   *BoardHub
	events   EventPublisher
	log      *zap.Logger
	scorer   Scorer
	opts     AttemptOptions
	now      func() time.Time
}

func NewAttemptService(quizzes QuizRepository, catalog QuizStore, attempts AttemptStore, users UserStore, boards *BoardHub, events EventPublisher, log *zap.Logger, opts AttemptOptions) *AttemptService {
	if boards == nil {
		boards = NewBoardHub()
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &AttemptService{
		quizzes:  quizzes,
		catalog:  catalog,
		attempts: attempts,
		users:    users,
		boards:   boards,
		events:   events,
		log:      log,
		scorer:   Scorer{Strict: opts.StrictScoring},
		opts:     opts,
		now:      now,
	}
}

// Start opens an attempt, or returns the existing one unchanged whatever its status.
func (s *AttemptService) Start(ctx context.Context, quizID, userID string) (domain.Attempt, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Attempt{}, err
	}

	startedAt := s.now().UTC()
	attempt, created, err := s.attempts.StartAttempt(ctx, domain.Attempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    domain.StatusInProgress,
		Responses: []domain.Response{},
		StartedAt: &startedAt,
	})
	if err != nil {
		return domain.Attempt{}, err
	}

	if created {
		metrics.AttemptsStarted.Inc()
		s.log.Info("attempt started", zap.String("quiz_id", quizID), zap.String("user_id", userID))
		s.publish(ctx, "attempt.started", map[string]string{"quizId": quizID, "userId": userID})
	}
	return attempt, nil
}

// Submit scores responses against the quiz and stores them as the completed
// attempt. Later submissions replace earlier ones.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID string, responses []domain.Response) (domain.ScoreCard, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ScoreCard{}, err
	}

	now := s.now().UTC()
	if s.opts.EnforceDeadline {
		if err := s.checkDeadline(ctx, quiz, userID, now); err != nil {
			metrics.AttemptsSubmitted.WithLabelValues("expired").Inc()
			return domain.ScoreCard{}, err
		}
	}

	card, err := s.scorer.Score(quiz.Questions, responses)
	if err != nil {
		metrics.AttemptsSubmitted.WithLabelValues("rejected").Inc()
		return domain.ScoreCard{}, err
	}

	if responses == nil {
		responses = []domain.Response{}
	}
	if _, err := s.attempts.SaveSubmission(ctx, domain.Attempt{
		QuizID:      quizID,
		UserID:      userID,
		Status:      domain.StatusCompleted,
		Score:       card.Total,
		Responses:   responses,
		SubmittedAt: &now,
	}); err != nil {
		return domain.ScoreCard{}, err
	}

	metrics.AttemptsSubmitted.WithLabelValues("accepted").Inc()
	metrics.SubmittedScore.Observe(float64(card.Total))
	s.log.Info("attempt submitted",
		zap.String("quiz_id", quizID),
		zap.String("user_id", userID),
		zap.Int("score", card.Total),
		zap.Int("responses", len(responses)),
	)
	s.publish(ctx, "attempt.submitted", map[string]any{"quizId": quizID, "userId": userID, "score": card.Total})
	s.refreshBoard(ctx, quizID)
	return card, nil
}

func (s *AttemptService) checkDeadline(ctx context.Context, quiz domain.Quiz, userID string, now time.Time) error {
	prior, err := s.attempts.GetAttempt(ctx, quiz.ID, userID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if prior.StartedAt == nil || quiz.Duration <= 0 {
		return nil
	}
	deadline := prior.StartedAt.Add(time.Duration(quiz.Duration) * time.Minute)
	if now.After(deadline) {
		return domain.ErrAttemptExpired
	}
	return nil
}

// GetOwnResult returns the caller's attempt joined with the quiz title.
func (s *AttemptService) GetOwnResult(ctx context.Context, quizID, userID string) (domain.OwnResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, quizID, userID)
	if err != nil {
		return domain.OwnResult{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.OwnResult{}, err
	}
	return domain.OwnResult{
		QuizTitle: quiz.Title,
		Score:     attempt.Score,
		Status:    attempt.Status,
		Responses: attempt.Responses,
	}, nil
}

// GetParticipantResult returns another user's attempt on a quiz.
func (s *AttemptService) GetParticipantResult(ctx context.Context, quizID, userID string) (domain.ParticipantResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, quizID, userID)
	if err != nil {
		return domain.ParticipantResult{}, err
	}
	return domain.ParticipantResult{
		UserID:    userID,
		Score:     attempt.Score,
		Status:    attempt.Status,
		Responses: attempt.Responses,
	}, nil
}

// ListParticipants returns every attempt on quizID. An empty quiz is reported
// as domain.ErrNoParticipants unless EmptyParticipantsOK is set.
func (s *AttemptService) ListParticipants(ctx context.Context, quizID string) ([]domain.Participant, error) {
	participants, _, err := s.participants(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 && !s.opts.EmptyParticipantsOK {
		return nil, domain.ErrNoParticipants
	}
	return participants, nil
}

func (s *AttemptService) participants(ctx context.Context, quizID string) ([]domain.Participant, map[string]int64, error) {
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.UserID)
	}
	users := map[string]domain.User{}
	if len(ids) > 0 {
		if users, err = s.users.GetUsers(ctx, ids); err != nil {
			return nil, nil, err
		}
	}

	participants := make([]domain.Participant, 0, len(attempts))
	submitted := make(map[string]int64, len(attempts))
	for _, a := range attempts {
		participants = append(participants, domain.Participant{
			UserID:   a.UserID,
			Username: users[a.UserID].Username,
			Score:    a.Score,
			Status:   a.Status,
		})
		submitted[a.UserID] = math.MaxInt64
		if a.SubmittedAt != nil {
			submitted[a.UserID] = a.SubmittedAt.UnixNano()
		}
	}
	return participants, submitted, nil
}

// MyQuizzes lists every quiz with the user's attempt status, "Not Started" when absent.
func (s *AttemptService) MyQuizzes(ctx context.Context, userID string) ([]domain.MyQuiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := make(map[string]domain.AttemptStatus, len(attempts))
	for _, a := range attempts {
		status[a.QuizID] = a.Status
	}

	out := make([]domain.MyQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		st, ok := status[q.ID]
		if !ok {
			st = domain.StatusNotStarted
		}
		out = append(out, domain.MyQuiz{QuizSummary: q, Status: st})
	}
	return out, nil
}

// Watch subscribes to the ranked participant board of a quiz.
// The caller must invoke the returned cancel function.
func (s *AttemptService) Watch(ctx context.Context, quizID string) (<-chan domain.ParticipantBoard, func(), error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}
	snapshot, err := s.snapshot(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.boards.Subscribe(quizID, snapshot)
	return ch, cancel, nil
}

func (s *AttemptService) snapshot(ctx context.Context, quizID string) (domain.ParticipantBoard, error) {
	participants, submitted, err := s.participants(ctx, quizID)
	if err != nil {
		return domain.ParticipantBoard{}, err
	}
	return domain.ParticipantBoard{
		QuizID:       quizID,
		Participants: rankParticipants(participants, submitted),
		UpdatedAt:    s.now().UTC(),
	}, nil
}

func (s *AttemptService) refreshBoard(ctx context.Context, quizID string) {
	if s.boards.Watchers(quizID) == 0 {
		return
	}
	snapshot, err := s.snapshot(ctx, quizID)
	if err != nil {
		s.log.Warn("participant board refresh failed", zap.String("quiz_id", quizID), zap.Error(err))
		return
	}
	s.boards.Publish(snapshot)
}

func (s *AttemptService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.log.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
