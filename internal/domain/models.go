package domain

import "time"

// AttemptStatus tracks how far a participant got with a quiz.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "Not Started"
	StatusInProgress AttemptStatus = "In-Progress"
	StatusCompleted  AttemptStatus = "Completed"
)

// Question is embedded in its quiz and has no lifecycle of its own.
type Question struct {
	ID            string   `json:"id" bson:"id"`
	Text          string   `json:"questionText" bson:"questionText"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer string   `json:"correctAnswer" bson:"correctAnswer"`
	Marks         int      `json:"marks" bson:"marks"`
}

// Quiz is a titled, timed collection of questions.
type Quiz struct {
	ID                string     `json:"id" bson:"_id"`
	Title             string     `json:"title" bson:"title"`
	NumberOfQuestions int        `json:"numberOfQuestions" bson:"numberOfQuestions"`
	TotalScore        int        `json:"totalScore" bson:"totalScore"`
	Duration          int        `json:"duration" bson:"duration"` // minutes
	Questions         []Question `json:"questions" bson:"questions"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
}

// Summary projects the quiz onto its listing view.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{ID: q.ID, Title: q.Title, TotalScore: q.TotalScore, Duration: q.Duration}
}

// QuizSpec is the author's input for a new quiz.
type QuizSpec struct {
	Title             string `json:"title"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
	TotalScore        int    `json:"totalScore"`
	Duration          int    `json:"duration"`
}

// QuestionSpec is the author's input for a new question.
type QuestionSpec struct {
	Text          string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Marks         int      `json:"marks"`
}

// QuizSummary is the listing view; question content is withheld.
type QuizSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	TotalScore int    `json:"totalScore"`
	Duration   int    `json:"duration"`
}

// QuestionView is a question as shown to participants, without the answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Options []string `json:"options"`
}

// QuestionSheet is what a participant sees before answering.
type QuestionSheet struct {
	QuizTitle  string         `json:"quizTitle"`
	Duration   int            `json:"duration"`
	TotalScore int            `json:"totalScore"`
	Questions  []QuestionView `json:"questions"`
}

// Response is one submitted answer. Neither field is validated against the quiz.
type Response struct {
	QuestionID     string `json:"questionId" bson:"questionId"`
	SelectedOption string `json:"selectedOption" bson:"selectedOption"`
}

// Attempt is the single record of a user's engagement with a quiz.
type Attempt struct {
	QuizID      string        `json:"quizId" bson:"quiz"`
	UserID      string        `json:"userId" bson:"user"`
	Status      AttemptStatus `json:"status" bson:"status"`
	Score       int           `json:"score" bson:"score"`
	Responses   []Response    `json:"responses" bson:"responses"`
	StartedAt   *time.Time    `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
}

// ResponseMark records how one response was scored.
type ResponseMark struct {
	QuestionID string `json:"questionId"`
	Matched    bool   `json:"matched"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
}

// ScoreCard is the outcome of scoring a submission.
type ScoreCard struct {
	Total int            `json:"score"`
	Marks []ResponseMark `json:"marks"`
}

// OwnResult is the caller's view of their attempt.
type OwnResult struct {
	QuizTitle string        `json:"quizTitle"`
	Score     int           `json:"score"`
	Status    AttemptStatus `json:"status"`
	Responses []Response    `json:"responses"`
}

// ParticipantResult is an author's view of one participant's attempt.
type ParticipantResult struct {
	UserID    string        `json:"userId"`
	Score     int           `json:"score"`
	Status    AttemptStatus `json:"status"`
	Responses []Response    `json:"responses"`
}

// Participant is a snapshot-friendly view of an attempt on a quiz.
type Participant struct {
	UserID   string        `json:"userId"`
	Username string        `json:"username"`
	Score    int           `json:"score"`
	Status   AttemptStatus `json:"status"`
}

// ParticipantBoard captures the ordered participants of a quiz.
type ParticipantBoard struct {
	QuizID       string        `json:"quizId"`
	Participants []Participant `json:"participants"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// MyQuiz is a quiz summary with the caller's attempt status.
type MyQuiz struct {
	QuizSummary
	Status AttemptStatus `json:"status"`
}

// Role is carried in tokens; no policy is attached to it.
type Role string

// User is a registered account.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password"`
	Role         Role      `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Identity is the verified caller behind a request.
type Identity struct {
	UserID string
	Role   Role
}
