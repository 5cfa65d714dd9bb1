package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

type RealtimeHandler struct {
	signer *realtime.Signer
}

func NewRealtimeHandler(signer *realtime.Signer) *RealtimeHandler {
	return &RealtimeHandler{signer: signer}
}

// ChannelAuthRequest accepts both form posts and JSON bodies
type ChannelAuthRequest struct {
	SocketID    string `form:"socket_id" json:"socket_id" binding:"required"`
	ChannelName string `form:"channel_name" json:"channel_name" binding:"required"`
}

// Authorize signs a socket's request to join a private or presence channel
// POST /api/realtime/auth
func (h *RealtimeHandler) Authorize(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ChannelAuthRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "socket_id and channel_name are required")
		return
	}

	auth, err := h.signer.Authorize(req.SocketID, req.ChannelName, userID)
	if err != nil {
		logger.Log.Warn("Channel authorization refused",
			zap.String("user_id", userID),
			zap.String("channel", req.ChannelName),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	// raw payload, the realtime client reads {auth, channel_data} directly
	c.JSON(http.StatusOK, auth)
}
