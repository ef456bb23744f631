package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
)

type AuthHandler struct {
	auth *app.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *app.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type credentials struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("%s registered successfully", user.Role),
		"role":    user.Role,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Dashboard(c *gin.Context) {
	identity, _ := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome %s to the dashboard!", identity.Role)})
}
