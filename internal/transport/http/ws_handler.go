package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/app"
)

// LiveHandler streams a quiz's ranked participant board over a websocket.
type LiveHandler struct {
	attempts *app.AttemptService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewLiveHandler(attempts *app.AttemptService, log *zap.Logger) *LiveHandler {
	return &LiveHandler{
		attempts: attempts,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS sends the current board, then every update until the client leaves.
func (h *LiveHandler) ServeWS(c *gin.Context) {
	quizID := c.Param("id")
	ctx := c.Request.Context()

	updates, cancel, err := h.attempts.Watch(ctx, quizID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	writerDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for {
			select {
			case board, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage{Type: "participants", Payload: board}); err != nil {
					h.log.Debug("ws write error", zap.Error(err))
					_ = conn.Close()
					return
				}
			case <-closed:
				return
			}
		}
	}()

	// Inbound messages carry no meaning; reading only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(closed)
	<-writerDone
}
