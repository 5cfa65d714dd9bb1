package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/service"
)

type LikeHandler struct {
	likeService *service.LikeService
}

func NewLikeHandler(likeService *service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

type ToggleLikeRequest struct {
	IsLiked bool `json:"isLiked"`
}

// POST /api/likes/:userId
func (h *LikeHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	if err := h.likeService.ToggleLike(c.Request.Context(), userID, c.Param("userId"), req.IsLiked); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/likes/ids
func (h *LikeHandler) IDs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ids, err := h.likeService.FetchCurrentUserLikeIDs(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, ids)
}

// GET /api/likes?type=source|target|mutual
func (h *LikeHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	listType := service.LikeListType(c.DefaultQuery("type", string(service.LikeListSource)))
	switch listType {
	case service.LikeListSource, service.LikeListTarget, service.LikeListMutual:
	default:
		respondBadRequest(c, "type must be source, target or mutual")
		return
	}

	members, err := h.likeService.FetchLikedMembers(c.Request.Context(), userID, listType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, members)
}
