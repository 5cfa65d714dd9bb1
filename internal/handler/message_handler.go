package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// POST /api/messages/:recipientId
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.SendMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	dto, err := h.messageService.SendMessage(c.Request.Context(), userID, c.Param("recipientId"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, dto)
}

// GET /api/messages/thread/:userId
func (h *MessageHandler) Thread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	messages, err := h.messageService.GetMessageThread(c.Request.Context(), userID, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, messages)
}

// GET /api/messages?container=inbox|outbox&cursor=&limit=
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	viewer := models.ViewerFromContainer(c.DefaultQuery("container", "inbox"))

	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			respondBadRequest(c, "invalid cursor")
			return
		}
		cursor = &parsed
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	page, err := h.messageService.GetMessagesByContainer(c.Request.Context(), userID, viewer, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// DELETE /api/messages/:id?container=inbox|outbox
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	viewer := models.ViewerFromContainer(c.DefaultQuery("container", "inbox"))
	if err := h.messageService.DeleteMessage(c.Request.Context(), c.Param("id"), userID, viewer); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.messageService.GetUnreadMessageCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, count)
}
