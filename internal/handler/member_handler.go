package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/middleware"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/service"
)

type MemberHandler struct {
	memberService *service.MemberService
}

func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var params service.MemberParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.memberService.GetMembers(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// GET /api/members/:userId
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.memberService.GetMemberByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, member)
}

// GET /api/members/:userId/photos
// Owners and admins also see photos still waiting for approval.
func (h *MemberHandler) Photos(c *gin.Context) {
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	target := c.Param("userId")
	includeUnapproved := claims.UserID == target || claims.Role == models.RoleAdmin

	photos, err := h.memberService.GetMemberPhotos(c.Request.Context(), target, includeUnapproved)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, photos)
}

// PUT /api/members/me
func (h *MemberHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateMemberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	member, err := h.memberService.UpdateMemberProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, member)
}

// POST /api/members/last-active
func (h *MemberHandler) TouchLastActive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.memberService.UpdateLastActive(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
