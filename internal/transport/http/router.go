package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/app"
)

// Dependencies are the collaborators the HTTP surface is wired to.
type Dependencies struct {
	Catalog        *app.CatalogService
	Attempts       *app.AttemptService
	Auth           *app.AuthService
	Limiter        Limiter
	Metrics        http.Handler
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter builds the gin engine serving the quiz API.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), metricsMiddleware(), corsMiddleware(deps.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.Auth, log)
	quizHandler := NewQuizHandler(deps.Catalog, deps.Attempts, log)
	liveHandler := NewLiveHandler(deps.Attempts, log)

	api := r.Group("/api")
	if deps.Limiter != nil {
		// ahead of authentication so rejected tokens still count
		api.Use(rateLimit(deps.Limiter, deps.Auth, log))
	}

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/dashboard", authenticate(deps.Auth), authHandler.Dashboard)

	quizzes := api.Group("/quizzes", authenticate(deps.Auth))
	quizzes.GET("", quizHandler.List)
	quizzes.POST("", quizHandler.Create)
	quizzes.GET("/my-quizzes", quizHandler.MyQuizzes)
	quizzes.POST("/:id/questions", quizHandler.AddQuestion)
	quizzes.GET("/:id/questions", quizHandler.Questions)
	quizzes.GET("/:id/participants", quizHandler.Participants)
	quizzes.GET("/:id/response", quizHandler.OwnResponse)
	quizzes.GET("/:id/response/:userId", quizHandler.ParticipantResponse)
	quizzes.POST("/:id/start", quizHandler.Start)
	quizzes.POST("/:id/submit", quizHandler.Submit)
	quizzes.GET("/:id/live", liveHandler.ServeWS)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
