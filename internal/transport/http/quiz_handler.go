package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
)

type QuizHandler struct {
	catalog  *app.CatalogService
	attempts *app.AttemptService
	log      *zap.Logger
}

func NewQuizHandler(catalog *app.CatalogService, attempts *app.AttemptService, log *zap.Logger) *QuizHandler {
	return &QuizHandler{catalog: catalog, attempts: attempts, log: log}
}

type submitRequest struct {
	Responses []domain.Response `json:"responses"`
}

func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) Create(c *gin.Context) {
	var spec domain.QuizSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	quiz, err := h.catalog.Create(c.Request.Context(), spec)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Quiz created successfully", "quiz": quiz})
}

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	var spec domain.QuestionSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	quiz, err := h.catalog.AddQuestion(c.Request.Context(), c.Param("id"), spec)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question added to quiz", "quiz": quiz})
}

func (h *QuizHandler) Questions(c *gin.Context) {
	sheet, err := h.catalog.Questions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (h *QuizHandler) MyQuizzes(c *gin.Context) {
	identity, _ := identityFrom(c)
	quizzes, err := h.attempts.MyQuizzes(c.Request.Context(), identity.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) Start(c *gin.Context) {
	identity, _ := identityFrom(c)
	attempt, err := h.attempts.Start(c.Request.Context(), c.Param("id"), identity.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz started", "attempt": attempt})
}

func (h *QuizHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	identity, _ := identityFrom(c)
	card, err := h.attempts.Submit(c.Request.Context(), c.Param("id"), identity.UserID, req.Responses)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz submitted successfully", "score": card.Total})
}

func (h *QuizHandler) OwnResponse(c *gin.Context) {
	identity, _ := identityFrom(c)
	result, err := h.attempts.GetOwnResult(c.Request.Context(), c.Param("id"), identity.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) ParticipantResponse(c *gin.Context) {
	result, err := h.attempts.GetParticipantResult(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if errors.Is(err, domain.ErrAttemptNotFound) {
		writeErrorMessage(c, h.log, err, "User has not attempted this quiz")
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) Participants(c *gin.Context) {
	participants, err := h.attempts.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}
