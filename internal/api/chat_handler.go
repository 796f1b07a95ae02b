package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/services"
)

// ChatHandler relays borrower messages to the assistant
type ChatHandler struct {
	chatService services.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService services.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, log: log}
}

// ChatRequest is the body of POST /chat and /chat/stream
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// GetHistory returns the session transcript
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"messages": h.chatService.History(sess)})
}

// SendMessage answers a message in one response
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, _ := auth.CurrentSession(c)
	reply, err := h.chatService.Send(c.Request.Context(), sess, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// eventStream writes a relayed reply as text/event-stream
type eventStream struct {
	c *gin.Context
}

func (s *eventStream) Start() {
	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)
	s.c.Writer.WriteHeaderNow()
}

func (s *eventStream) Write(p []byte) (int, error) {
	return s.c.Writer.Write(p)
}

func (s *eventStream) Flush() {
	s.c.Writer.Flush()
}

// StreamMessage relays the assistant's event stream as it arrives
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, _ := auth.CurrentSession(c)
	sink := &eventStream{c: c}
	if err := h.chatService.Stream(c.Request.Context(), sess, req.Message, sink); err != nil {
		if c.Writer.Written() {
			h.log.Warn("chat stream ended with error", "error", err.Error())
			return
		}
		if errors.HTTPStatus(err) == http.StatusInternalServerError {
			h.log.Error("failed to start chat stream", err, "user_id", sess.UserID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": services.MsgStreamFailed})
			return
		}
		respondError(c, err)
	}
}
