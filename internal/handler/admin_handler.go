package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/middleware"
	"github.com/heartline/heartline/internal/service"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService  *service.AuthService
	adminService *service.AdminService
}

func NewAdminHandler(authService *service.AuthService, adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		adminService: adminService,
	}
}

// GetAllUsers returns every account
// GET /api/admin/users
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	logger.Log.Info("Admin fetching all users",
		zap.String("admin_id", c.GetString("user_id")),
	)

	users, err := h.authService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

// GET /api/admin/photos/unapproved
func (h *AdminHandler) UnapprovedPhotos(c *gin.Context) {
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	photos, err := h.adminService.GetUnapprovedPhotos(c.Request.Context(), claims.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, photos)
}

// POST /api/admin/photos/:id/approve
func (h *AdminHandler) ApprovePhoto(c *gin.Context) {
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.adminService.ApprovePhoto(c.Request.Context(), claims.Role, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Admin approved photo",
		zap.String("admin_id", claims.UserID),
		zap.String("photo_id", c.Param("id")),
	)
	c.Status(http.StatusNoContent)
}

// POST /api/admin/photos/:id/reject
func (h *AdminHandler) RejectPhoto(c *gin.Context) {
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.adminService.RejectPhoto(c.Request.Context(), claims.Role, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Admin rejected photo",
		zap.String("admin_id", claims.UserID),
		zap.String("photo_id", c.Param("id")),
	)
	c.Status(http.StatusNoContent)
}
